package tables

import "github.com/JonMunkholm/tabular/internal/core"

// Wine review column names after renaming.
const (
	ColCountry  = "pais"
	ColPoints   = "puntuacion"
	ColPrice    = "precio"
	ColVariety  = "variedad"
	ColProvince = "provincia"
)

// Derived wine columns added during enrichment.
const (
	ColContinent     = "continente"
	ColQuality       = "calidad"
	ColPriceCategory = "precio_categoria"
	ColPointsRatio   = "relacion_puntos_precio"
)

func init() {
	registerWines()
}

func registerWines() {
	core.Register(core.TableDefinition{
		Key:   Wines,
		Label: "Wine reviews",
		FieldSpecs: []core.FieldSpec{
			{Name: "country", Column: ColCountry, Type: core.ColumnCategorical, AllowEmpty: true, Normalizer: CollapseSpaces},
			{Name: "points", Column: ColPoints, Type: core.ColumnInteger, Required: true},
			{Name: "price", Column: ColPrice, Type: core.ColumnFloat, AllowEmpty: true},
			{Name: "variety", Column: ColVariety, Type: core.ColumnCategorical, AllowEmpty: true, Normalizer: CollapseSpaces},
			{Name: "province", Column: ColProvince, Type: core.ColumnCategorical, AllowEmpty: true, Normalizer: CollapseSpaces},
		},
	})
}
