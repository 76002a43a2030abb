package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	KeyApproved    = "APPROVED"
	KeyComments    = "COMMENTS"
	KeyStock       = "STOCK #"
	KeyDescription = "DESCRIPTION"
	KeyPicture     = "PICTURE_URL"
	KeyHeadLights  = "HEAD LIGHTS"
	KeyDents       = "DENTS"
	KeyScratches   = "SCRATCHES"
	KeyChips       = "CHIPS"
	KeyChipsScr    = "CHIPS/SCRATCHES"
	KeyRemediation = "REMEDIATION"
	KeyPaintTouch  = "PAINT TOUCH UP"
	KeyPaintBody   = "PAINT & BODY"
	KeyParts       = "PARTS"
	KeyLabor       = "LABOR"
	KeyTotal       = "TOTAL"
)

const (
	VariantStandard    = "standard"
	VariantRemediation = "remediation"
	VariantDamageSum   = "damage-sum"
)

func toggleCol(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindToggle, Class: ClassFor(key, "toggle")}
}

func textCol(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindText, Class: ClassFor(key, "cell")}
}

func numericCol(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindNumeric, Class: ClassFor(key, "cell")}
}

// ClassFor turns a column key into a CSS class, e.g. "PAINT & BODY" -> "paint-body-toggle".
func ClassFor(key, suffix string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if suffix == "" {
		return slug
	}
	return slug + "-" + suffix
}

func leadingColumns() []Column {
	return []Column{
		toggleCol(KeyApproved, "Approved"),
		textCol(KeyComments, "Comments"),
		textCol(KeyStock, "Stock #"),
		textCol(KeyDescription, "Description"),
		{Key: KeyPicture, Label: "Picture", Kind: KindUpload, Class: "picture-cell"},
	}
}

func trailingColumns() []Column {
	return []Column{
		numericCol(KeyParts, "Parts"),
		numericCol(KeyLabor, "Labor"),
		{Key: KeyTotal, Label: "Total", Kind: KindTotal, Class: "total-cell"},
	}
}

// StandardSchema is the toggle-based layout. REMEDIATION is always submitted as false.
func StandardSchema() *Schema {
	cols := leadingColumns()
	cols = append(cols,
		toggleCol(KeyHeadLights, "Head Lights"),
		toggleCol(KeyDents, "Dents"),
		toggleCol(KeyScratches, "Scratches"),
		toggleCol(KeyChips, "Chips"),
		toggleCol(KeyPaintBody, "Paint & Body"),
	)
	cols = append(cols, trailingColumns()...)

	return &Schema{
		Name:      VariantStandard,
		Columns:   cols,
		Constants: []Constant{{Key: KeyRemediation, Value: false}},
		Empty:     EmptyIgnoresToggles,
	}
}

// RemediationSchema merges chips and scratches and exposes REMEDIATION as a toggle.
func RemediationSchema() *Schema {
	cols := leadingColumns()
	cols = append(cols,
		toggleCol(KeyHeadLights, "Head Lights"),
		toggleCol(KeyDents, "Dents"),
		toggleCol(KeyChipsScr, "Chips/Scratches"),
		toggleCol(KeyRemediation, "Remediation"),
		toggleCol(KeyPaintBody, "Paint & Body"),
	)
	cols = append(cols, trailingColumns()...)

	return &Schema{
		Name:    VariantRemediation,
		Columns: cols,
		Empty:   EmptyIncludesToggles,
	}
}

// DamageSumSchema records damage categories as amounts and totals all of them.
func DamageSumSchema() *Schema {
	cols := []Column{
		textCol(KeyComments, "Comments"),
		textCol(KeyStock, "Stock #"),
		textCol(KeyDescription, "Description"),
		numericCol(KeyHeadLights, "Head Lights"),
		numericCol(KeyDents, "Dents"),
		numericCol(KeyChipsScr, "Chips/Scratches"),
		numericCol(KeyPaintTouch, "Paint Touch Up"),
		numericCol(KeyPaintBody, "Paint & Body"),
	}
	cols = append(cols, trailingColumns()...)

	return &Schema{
		Name:    VariantDamageSum,
		Columns: cols,
		Empty:   EmptyIgnoresToggles,
	}
}

var variants = map[string]func() *Schema{
	VariantStandard:    StandardSchema,
	VariantRemediation: RemediationSchema,
	VariantDamageSum:   DamageSumSchema,
}

// Lookup returns a fresh copy of the named built-in schema.
func Lookup(name string) (*Schema, error) {
	const op = "table.Lookup"

	build, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownSchema, name)
	}
	return build(), nil
}

// Variants lists the built-in schema names in sorted order.
func Variants() []string {
	names := lo.Keys(variants)
	slices.Sort(names)
	return names
}
