package model

// Kind is the type of care a task asks for.
type Kind string

const (
	KindFeeding       Kind = "feeding"
	KindWater         Kind = "water"
	KindWalking       Kind = "walking"
	KindGrooming      Kind = "grooming"
	KindMedication    Kind = "medication"
	KindVetVisit      Kind = "vet_visit"
	KindVaccination   Kind = "vaccination"
	KindCleaning      Kind = "cleaning"
	KindPlaytime      Kind = "playtime"
	KindTraining      Kind = "training"
	KindWeighing      Kind = "weighing"
	KindNailTrimming  Kind = "nail_trimming"
	KindTeethCleaning Kind = "teeth_cleaning"
	KindBathTime      Kind = "bath_time"
	KindCustom        Kind = "custom"
)

// KindInfo holds display attributes of a kind.
type KindInfo struct {
	Label string
	Icon  string
}

// Kinds lists every kind in menu order.
var Kinds = []Kind{
	KindFeeding, KindWater, KindWalking, KindGrooming, KindMedication,
	KindVetVisit, KindVaccination, KindCleaning, KindPlaytime, KindTraining,
	KindWeighing, KindNailTrimming, KindTeethCleaning, KindBathTime, KindCustom,
}

// KindCatalog maps every kind to its display attributes.
var KindCatalog = map[Kind]KindInfo{
	KindFeeding:       {Label: "Feeding", Icon: "🍽"},
	KindWater:         {Label: "Water", Icon: "💧"},
	KindWalking:       {Label: "Walking", Icon: "🚶"},
	KindGrooming:      {Label: "Grooming", Icon: "🪮"},
	KindMedication:    {Label: "Medication", Icon: "💊"},
	KindVetVisit:      {Label: "Vet Visit", Icon: "🩺"},
	KindVaccination:   {Label: "Vaccination", Icon: "💉"},
	KindCleaning:      {Label: "Cleaning", Icon: "✨"},
	KindPlaytime:      {Label: "Playtime", Icon: "🎾"},
	KindTraining:      {Label: "Training", Icon: "🏅"},
	KindWeighing:      {Label: "Weighing", Icon: "⚖️"},
	KindNailTrimming:  {Label: "Nail Trimming", Icon: "✂️"},
	KindTeethCleaning: {Label: "Teeth Cleaning", Icon: "🦷"},
	KindBathTime:      {Label: "Bath Time", Icon: "🛁"},
	KindCustom:        {Label: "Custom", Icon: "⭐"},
}

// ParseKind resolves a kind tag ("vet_visit") or label ("Vet Visit"), case-insensitively.
func ParseKind(raw string) (Kind, bool) {
	key := normalizeTag(raw)
	for _, kind := range Kinds {
		if key == string(kind) || key == normalizeTag(KindCatalog[kind].Label) {
			return kind, true
		}
	}
	return "", false
}
