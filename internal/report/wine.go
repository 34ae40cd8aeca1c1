package report

import (
	"github.com/JonMunkholm/tabular/internal/core"
	"github.com/JonMunkholm/tabular/internal/core/tables"
)

// Wine report names. Sinks are routed by these names.
const (
	ContinentSummary = "reporte1_continente"
	BestWines        = "reporte2_mejores_vinos"
	PriceQuality     = "reporte3_categoria_calidad"
	TopRatio         = "reporte4_top10_relacion"
)

// Wine report output columns.
const (
	ColMeanPoints = "prom_puntuacion"
	ColMeanPrice  = "prom_precio"
	ColCount      = "cantidad"
)

// TopRatioLimit is the number of countries kept in the ratio ranking.
const TopRatioLimit = 10

// Report is a named result table.
type Report struct {
	Name  string
	Table *core.Table
}

// BuildWineReports computes the four wine reports from an enriched table.
func BuildWineReports(t *core.Table) ([]Report, error) {
	r1, err := GroupMean(t, ContinentSummary, tables.ColContinent,
		Mean{Source: tables.ColPoints, Target: ColMeanPoints},
		Mean{Source: tables.ColPrice, Target: ColMeanPrice},
	)
	if err != nil {
		return nil, err
	}

	r2, err := ArgMax(t, BestWines, tables.ColCountry, tables.ColPoints,
		tables.ColCountry, tables.ColVariety, tables.ColPoints, tables.ColPrice)
	if err != nil {
		return nil, err
	}

	r3, err := CrossCount(t, PriceQuality, tables.ColPriceCategory, tables.ColQuality, ColCount)
	if err != nil {
		return nil, err
	}

	r4, err := TopMean(t, TopRatio, tables.ColCountry, tables.ColPointsRatio, TopRatioLimit)
	if err != nil {
		return nil, err
	}

	return []Report{
		{Name: ContinentSummary, Table: r1},
		{Name: BestWines, Table: r2},
		{Name: PriceQuality, Table: r3},
		{Name: TopRatio, Table: r4},
	}, nil
}
