package studio

import (
	"github.com/Rana718/injectdb/internal/importer"
	"github.com/Rana718/injectdb/internal/studio/common"
)

type ConnectRequest struct {
	Role string `json:"role"`
	URL  string `json:"url"`
}

type ConnectResponse struct {
	Role   string   `json:"role"`
	URL    string   `json:"url"`
	Tables []string `json:"tables"`
}

// State is everything the form needs to redraw itself.
type State struct {
	Preview       *common.Preview         `json:"preview,omitempty"`
	Destination   string                  `json:"destination,omitempty"`
	Source        string                  `json:"source,omitempty"`
	Mappings      []importer.Mapping      `json:"mappings"`
	Relationships []importer.Relationship `json:"relationships"`
}

type InsertResponse struct {
	Tables []importer.TableResult `json:"tables"`
	Rows   int64                  `json:"rows"`
	Failed int                    `json:"failed"`
}
