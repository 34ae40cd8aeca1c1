package tables

import "github.com/JonMunkholm/tabular/internal/core"

// Video table column names, in source order.
const (
	ColVideoID = "video_id"
	ColViews   = "views"
	ColRate    = "rate"
)

func init() {
	registerVideos()
}

func registerVideos() {
	core.Register(core.TableDefinition{
		Key:   Videos,
		Label: "Video statistics",
		FieldSpecs: []core.FieldSpec{
			{Name: ColVideoID, Type: core.ColumnInteger, Required: true},
			{Name: ColViews, Type: core.ColumnInteger, Required: true},
			{Name: ColRate, Type: core.ColumnInteger, Required: true},
		},
	})
}
