package xsd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// builtin describes one XSD builtin datatype: the type it is derived from and
// a lexical check.
type builtin struct {
	base  string
	check func(value string) error
}

var builtinTypes = map[string]builtin{
	"anyType":       {},
	"anySimpleType": {base: "anyType"},

	"string":       {base: "anySimpleType"},
	"boolean":      {base: "anySimpleType", check: oneOf("true", "false", "1", "0")},
	"decimal":      {base: "anySimpleType", check: matches(`[+-]?(\d+(\.\d*)?|\.\d+)`)},
	"float":        {base: "anySimpleType", check: floating(32)},
	"double":       {base: "anySimpleType", check: floating(64)},
	"duration":     {base: "anySimpleType", check: matches(`-?P(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?`)},
	"dateTime":     {base: "anySimpleType", check: timeLayouts("2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05")},
	"time":         {base: "anySimpleType", check: timeLayouts("15:04:05Z07:00", "15:04:05")},
	"date":         {base: "anySimpleType", check: timeLayouts("2006-01-02Z07:00", "2006-01-02")},
	"gYearMonth":   {base: "anySimpleType", check: matches(`-?\d{4,}-(0[1-9]|1[0-2])` + tz)},
	"gYear":        {base: "anySimpleType", check: matches(`-?\d{4,}` + tz)},
	"gMonthDay":    {base: "anySimpleType", check: matches(`--(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])` + tz)},
	"gDay":         {base: "anySimpleType", check: matches(`---(0[1-9]|[12]\d|3[01])` + tz)},
	"gMonth":       {base: "anySimpleType", check: matches(`--(0[1-9]|1[0-2])` + tz)},
	"hexBinary":    {base: "anySimpleType", check: hexBinary},
	"base64Binary": {base: "anySimpleType", check: base64Binary},
	"anyURI":       {base: "anySimpleType"},
	"QName":        {base: "anySimpleType", check: matches(ncName + `(:` + ncName + `)?`)},
	"NOTATION":     {base: "anySimpleType", check: matches(ncName + `(:` + ncName + `)?`)},

	"normalizedString": {base: "string", check: notContaining("\r\n\t")},
	"token":            {base: "normalizedString", check: token},
	"language":         {base: "token", check: matches(`[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*`)},
	"Name":             {base: "token", check: matches(`[\pL_:][\pL\pN.\-_:]*`)},
	"NMTOKEN":          {base: "token", check: matches(`[\pL\pN.\-_:]+`)},
	"NCName":           {base: "Name", check: matches(ncName)},
	"ID":               {base: "NCName", check: matches(ncName)},
	"IDREF":            {base: "NCName", check: matches(ncName)},
	"ENTITY":           {base: "NCName", check: matches(ncName)},
	"NMTOKENS":         {base: "anySimpleType", check: listOf(matches(`[\pL\pN.\-_:]+`))},
	"IDREFS":           {base: "anySimpleType", check: listOf(matches(ncName))},
	"ENTITIES":         {base: "anySimpleType", check: listOf(matches(ncName))},

	"integer":            {base: "decimal", check: integer(nil, nil)},
	"nonPositiveInteger": {base: "integer", check: integer(nil, big.NewInt(0))},
	"negativeInteger":    {base: "nonPositiveInteger", check: integer(nil, big.NewInt(-1))},
	"long":               {base: "integer", check: integer(minInt(64), maxInt(64))},
	"int":                {base: "long", check: integer(minInt(32), maxInt(32))},
	"short":              {base: "int", check: integer(minInt(16), maxInt(16))},
	"byte":               {base: "short", check: integer(minInt(8), maxInt(8))},
	"nonNegativeInteger": {base: "integer", check: integer(big.NewInt(0), nil)},
	"unsignedLong":       {base: "nonNegativeInteger", check: integer(big.NewInt(0), maxUint(64))},
	"unsignedInt":        {base: "unsignedLong", check: integer(big.NewInt(0), maxUint(32))},
	"unsignedShort":      {base: "unsignedInt", check: integer(big.NewInt(0), maxUint(16))},
	"unsignedByte":       {base: "unsignedShort", check: integer(big.NewInt(0), maxUint(8))},
	"positiveInteger":    {base: "nonNegativeInteger", check: integer(big.NewInt(1), nil)},

	"dayTimeDuration":   {base: "duration", check: matches(`-?P(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?`)},
	"yearMonthDuration": {base: "duration", check: matches(`-?P(\d+Y)?(\d+M)?`)},
	"dateTimeStamp":     {base: "dateTime", check: timeLayouts("2006-01-02T15:04:05Z07:00")},
}

const (
	tz     = `(Z|[+-]\d{2}:\d{2})?`
	ncName = `[\pL_][\pL\pN.\-_]*`
)

// IsBuiltinType checks if a type is a built-in XSD type
func IsBuiltinType(name string) bool {
	_, ok := builtinTypes[name]
	return ok
}

// BuiltinBase returns the builtin that name is derived from, or "" for anyType
// and unknown names.
func BuiltinBase(name string) string {
	return builtinTypes[name].base
}

// DerivesFrom reports whether the builtin name is ancestor or derived from it.
func DerivesFrom(name, ancestor string) bool {
	for name != "" {
		if name == ancestor {
			return true
		}
		name = builtinTypes[name].base
	}
	return false
}

// ValidateBuiltin checks value against the lexical space of the builtin name.
func ValidateBuiltin(name, value string) error {
	b, ok := builtinTypes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnresolvedType, name)
	}
	if b.check == nil {
		return nil
	}
	if err := b.check(value); err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return nil
}

func matches(expr string) func(string) error {
	re := regexp.MustCompile("^(?:" + expr + ")$")
	return func(value string) error {
		if !re.MatchString(value) {
			return fmt.Errorf("does not match %s", expr)
		}
		return nil
	}
}

func oneOf(allowed ...string) func(string) error {
	return func(value string) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("not one of %v", allowed)
	}
}

func notContaining(chars string) func(string) error {
	return func(value string) error {
		if strings.ContainsAny(value, chars) {
			return fmt.Errorf("contains one of %q", chars)
		}
		return nil
	}
}

func token(value string) error {
	if strings.ContainsAny(value, "\r\n\t") {
		return fmt.Errorf("contains CR, LF or TAB")
	}
	if strings.HasPrefix(value, " ") || strings.HasSuffix(value, " ") || strings.Contains(value, "  ") {
		return fmt.Errorf("has leading, trailing or repeated spaces")
	}
	return nil
}

func floating(bits int) func(string) error {
	return func(value string) error {
		switch value {
		case "INF", "+INF", "-INF", "NaN":
			return nil
		}
		_, err := strconv.ParseFloat(value, bits)
		return err
	}
}

func timeLayouts(layouts ...string) func(string) error {
	return func(value string) error {
		for _, layout := range layouts {
			if _, err := time.Parse(layout, value); err == nil {
				return nil
			}
		}
		return fmt.Errorf("does not match %v", layouts)
	}
}

func hexBinary(value string) error {
	_, err := hex.DecodeString(value)
	return err
}

func base64Binary(value string) error {
	_, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(value), ""))
	return err
}

func listOf(item func(string) error) func(string) error {
	return func(value string) error {
		items := strings.Fields(value)
		if len(items) == 0 {
			return fmt.Errorf("empty list")
		}
		for _, it := range items {
			if err := item(it); err != nil {
				return err
			}
		}
		return nil
	}
}

func integer(lo, hi *big.Int) func(string) error {
	return func(value string) error {
		i, ok := new(big.Int).SetString(strings.TrimPrefix(value, "+"), 10)
		if !ok {
			return fmt.Errorf("not an integer")
		}
		if lo != nil && i.Cmp(lo) < 0 {
			return fmt.Errorf("below %s", lo)
		}
		if hi != nil && i.Cmp(hi) > 0 {
			return fmt.Errorf("above %s", hi)
		}
		return nil
	}
}

func minInt(bits uint) *big.Int {
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
}

func maxInt(bits uint) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
}

func maxUint(bits uint) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
}
