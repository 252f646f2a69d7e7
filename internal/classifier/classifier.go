// Package classifier identifies the waste type shown in a photo.
//
// Classification is advisory: it suggests a type and a point value but does
// not credit anything. Callers record a disposal afterwards.
package classifier

import (
	"context"
	"errors"
	"slices"
)

// Predefined classifier errors.
var (
	ErrNoImage         = errors.New("no image provided")
	ErrUnknownType     = errors.New("unknown waste type")
	ErrUpstreamFailure = errors.New("classification service failed")
)

// Waste types recognized by the classifier.
const (
	TypePlastic = "plastico"
	TypePaper   = "papel"
	TypeGlass   = "vidro"
	TypeMetal   = "metal"
	TypeOrganic = "organico"
)

var wasteTypes = []string{TypePlastic, TypePaper, TypeGlass, TypeMetal, TypeOrganic}

var disposalTips = map[string]string{
	TypePlastic: "Lave o recipiente antes do descarte. Remova tampas e rótulos quando possível.",
	TypePaper:   "Certifique-se de que o papel está limpo e seco. Papéis molhados ou sujos vão no lixo comum.",
	TypeGlass:   "Remova tampas e rótulos. Cuidado com vidros quebrados, embale adequadamente.",
	TypeMetal:   "Lave latas e recipientes. Remova rótulos quando possível.",
	TypeOrganic: "Ideal para compostagem. Evite misturar com outros tipos de resíduo.",
}

const genericTip = "Descarte adequadamente conforme as normas locais."

// DropOffLocations are the nearby collection points suggested with every result.
var DropOffLocations = []string{
	"Supermercado Central - 0.5km",
	"Ponto de Coleta Norte - 1.2km",
	"Cooperativa Sul - 2.1km",
}

// Image is an uploaded photo.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result is a classification suggestion.
type Result struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Points     int      `json:"points"`
	Tips       string   `json:"tips"`
	Locations  []string `json:"locations"`
}

// Classifier classifies waste photos.
type Classifier interface {
	Classify(ctx context.Context, img Image) (*Result, error)
}

// WasteTypes returns the recognized waste types.
func WasteTypes() []string {
	return slices.Clone(wasteTypes)
}

// IsWasteType reports whether t is a recognized waste type.
func IsWasteType(t string) bool {
	return slices.Contains(wasteTypes, t)
}

// TipFor returns the disposal tip for a waste type.
func TipFor(t string) string {
	if tip, ok := disposalTips[t]; ok {
		return tip
	}
	return genericTip
}
