package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/agentflare-ai/go-xsdgen/flatten"
	"github.com/agentflare-ai/go-xsdgen/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="Report">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="Rpt" maxOccurs="unbounded">
					<xs:complexType>
						<xs:sequence>
							<xs:element name="Amount" type="xs:decimal"/>
							<xs:element name="Line" minOccurs="0" maxOccurs="5">
								<xs:complexType>
									<xs:simpleContent>
										<xs:extension base="xs:string">
											<xs:attribute name="sku" type="xs:string"/>
										</xs:extension>
									</xs:simpleContent>
								</xs:complexType>
							</xs:element>
						</xs:sequence>
						<xs:attribute name="id" type="xs:string"/>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "columns.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func flattenReport(t *testing.T) *flatten.Result {
	t.Helper()
	schema, err := xsd.ParseBytes([]byte(reportSchema))
	require.NoError(t, err)
	schema.Name = "report.xsd"

	res, err := flatten.Flatten(schema, "Report", flatten.Options{RowTag: "Rpt"})
	require.NoError(t, err)
	return res
}

func TestSaveColumns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	res := flattenReport(t)

	require.NoError(t, db.SaveColumns(ctx, res))

	columns, err := db.Columns(ctx, "report.xsd", "Rpt")
	require.NoError(t, err)
	assert.Equal(t, res.Columns, columns)
	require.Len(t, columns, 4)
	assert.Equal(t, "Rpt.id.VALUE", columns[0].Name)
	assert.Equal(t, "id", columns[0].Attribute)

	repeats, err := db.Repeatables(ctx, "report.xsd")
	require.NoError(t, err)
	assert.Equal(t, []store.Repeatable{
		{Prefix: "Rpt", Path: "/Report/Rpt", MinOccurs: 1, MaxOccurs: xsd.Unbounded},
		{Prefix: "Rpt.Line", Path: "/Report/Rpt/Line", MinOccurs: 0, MaxOccurs: 5},
	}, repeats)

	names, err := db.RowTableColumns(ctx, "Rpt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Rpt.id.VALUE", "Rpt.Amount", "Rpt.Line.sku.VALUE", "Rpt.Line.VALUE"}, names)
}

func TestSaveColumnsTwice(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	res := flattenReport(t)

	require.NoError(t, db.SaveColumns(ctx, res))

	res.Columns = append(res.Columns, flatten.Column{Name: `Rpt."quoted"`, XPath: "/Report/Rpt/quoted"})
	require.NoError(t, db.SaveColumns(ctx, res))

	columns, err := db.Columns(ctx, "report.xsd", "Rpt")
	require.NoError(t, err)
	assert.Len(t, columns, 5)

	repeats, err := db.Repeatables(ctx, "report.xsd")
	require.NoError(t, err)
	assert.Len(t, repeats, 2)

	names, err := db.RowTableColumns(ctx, "Rpt")
	require.NoError(t, err)
	assert.Contains(t, names, `Rpt."quoted"`)
	assert.Len(t, names, 5)
}

const choiceSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="Report">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="Rpt" maxOccurs="unbounded">
					<xs:complexType>
						<xs:choice>
							<xs:sequence>
								<xs:element name="A" type="xs:string"/>
								<xs:element name="B" type="xs:string"/>
							</xs:sequence>
							<xs:sequence>
								<xs:element name="A" type="xs:string"/>
								<xs:element name="C" type="xs:string"/>
							</xs:sequence>
						</xs:choice>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func TestSaveColumnsSharedBranchColumns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	schema, err := xsd.ParseBytes([]byte(choiceSchema))
	require.NoError(t, err)
	schema.Name = "choice.xsd"
	res, err := flatten.Flatten(schema, "Report", flatten.Options{RowTag: "Rpt"})
	require.NoError(t, err)

	var listed []string
	for _, c := range res.Columns {
		listed = append(listed, c.Name)
	}
	require.Equal(t, []string{"Rpt.A", "Rpt.B", "Rpt.A", "Rpt.C"}, listed)

	require.NoError(t, db.SaveColumns(ctx, res))

	columns, err := db.Columns(ctx, "choice.xsd", "Rpt")
	require.NoError(t, err)
	assert.Len(t, columns, 4)

	names, err := db.RowTableColumns(ctx, "Rpt")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rpt.A", "Rpt.B", "Rpt.C"}, names)

	res.Columns = append(res.Columns, flatten.Column{Name: "rpt.c", XPath: "/Report/Rpt/c"})
	require.NoError(t, db.SaveColumns(ctx, res))
	names, err = db.RowTableColumns(ctx, "Rpt")
	require.NoError(t, err)
	assert.Len(t, names, 3)
}

func TestSaveColumnsWithoutRowTag(t *testing.T) {
	db := setupTestDB(t)
	res := flattenReport(t)
	res.RowTag = ""

	err := db.SaveColumns(context.Background(), res)
	assert.ErrorIs(t, err, store.ErrNoRowTag)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Migrate())

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}
