package synth

// samples holds one literal per builtin that has no generator.
var samples = map[string]string{
	// numeric
	"decimal":            "-3.72",
	"float":              "-42.217E11",
	"double":             "+24.3e-3",
	"integer":            "-176",
	"positiveInteger":    "+3",
	"negativeInteger":    "-7",
	"nonPositiveInteger": "-34",
	"nonNegativeInteger": "35",
	"long":               "567",
	"int":                "109",
	"short":              "4",
	"byte":               "2",
	"unsignedLong":       "94",
	"unsignedInt":        "96",
	"unsignedShort":      "24",
	"unsignedByte":       "17",

	// time and duration
	"dateTime":          "2004-04-12T13:20:00-05:00",
	"date":              "2004-04-12",
	"gYearMonth":        "2004-04",
	"gYear":             "2004",
	"duration":          "P2Y6M5DT12H35M30S",
	"dayTimeDuration":   "P1DT2H",
	"yearMonthDuration": "P2Y6M",
	"gMonthDay":         "--04-12",
	"gDay":              "---02",
	"gMonth":            "--04",

	// string
	"string":           "lol",
	"normalizedString": "The cure for boredom is curiosity.",
	"token":            "There is no cure for curiosity.",
	"language":         "en-US",
	"NMTOKEN":          "A_BCD",
	"NMTOKENS":         "ABCD 123",
	"Name":             "myElement",
	"NCName":           "_my.Element",

	// identifiers
	"ID":       "IdID",
	"IDREF":    "IdID",
	"IDREFS":   "IDrefs",
	"ENTITY":   "prod557",
	"ENTITIES": "prod557 prod563",

	"QName":         "pre:myElement",
	"boolean":       "true",
	"hexBinary":     "0FB8",
	"base64Binary":  "0fb8",
	"anyURI":        "http://miaozn.github.io/misc",
	"NOTATION":      "asd",
	"anySimpleType": "lol",
	"anyType":       "lol",
}
