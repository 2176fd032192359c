// AngelaMos | 2026
// feature.go

package billing

const (
	FeatureAgenda        = "agenda"
	FeatureCRM           = "crm"
	FeatureProsthetics   = "prosthetics"
	FeatureAIDashboard   = "ai_dashboard"
	FeatureMulticlinic   = "multiclinic"
	FeatureWhatsappLimit = "whatsapp_limit"
)

var FeatureKeys = []string{
	FeatureAgenda,
	FeatureCRM,
	FeatureProsthetics,
	FeatureAIDashboard,
	FeatureMulticlinic,
	FeatureWhatsappLimit,
}

type FeatureKind string

const (
	KindBool  FeatureKind = "bool"
	KindLevel FeatureKind = "level"
	KindLimit FeatureKind = "limit"
)

// Feature is one resolved plan entitlement. Exactly one of Enabled, Level
// or Limit carries the value, selected by Kind. The zero value is a denied
// feature.
type Feature struct {
	Kind    FeatureKind `json:"kind,omitempty"`
	Enabled bool        `json:"enabled"`
	Level   string      `json:"level,omitempty"`
	Limit   *int        `json:"limit,omitempty"`
	// Unlimited distinguishes a nil Limit that means "no cap".
	Unlimited bool `json:"unlimited,omitempty"`
}

// Granted collapses any kind to a yes/no answer: a level is granted when
// non-empty and a limit when unlimited or positive.
func (f Feature) Granted() bool {
	switch f.Kind {
	case KindBool:
		return f.Enabled
	case KindLevel:
		return f.Level != ""
	case KindLimit:
		return f.Unlimited || (f.Limit != nil && *f.Limit > 0)
	}
	return false
}

func resolveFeature(p *Plan, key string) (Feature, bool) {
	switch key {
	case FeatureAgenda:
		return levelFeature(p.AgendaLevel), true
	case FeatureCRM:
		return levelFeature(p.CRMLevel), true
	case FeatureProsthetics:
		return boolFeature(p.ProstheticsEnabled), true
	case FeatureAIDashboard:
		return boolFeature(p.AIDashboardEnabled), true
	case FeatureMulticlinic:
		return boolFeature(p.MulticlinicEnabled), true
	case FeatureWhatsappLimit:
		f := Feature{Kind: KindLimit, Limit: p.WhatsappLimit, Unlimited: p.WhatsappLimit == nil}
		f.Enabled = f.Granted()
		return f, true
	}
	return Feature{}, false
}

func boolFeature(v bool) Feature {
	return Feature{Kind: KindBool, Enabled: v}
}

func levelFeature(level string) Feature {
	return Feature{Kind: KindLevel, Enabled: level != "", Level: level}
}
