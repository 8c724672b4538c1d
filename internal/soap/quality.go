package soap

// Quality index names.
const (
	Hardness     = "hardness"
	Cleansing    = "cleansing"
	Conditioning = "conditioning"
	Bubbly       = "bubbly"
	Creamy       = "creamy"
	Iodine       = "iodine"
	INS          = "ins"
)

// Qualities lists the quality indices in display order.
var Qualities = []string{Hardness, Cleansing, Conditioning, Bubbly, Creamy, Iodine, INS}

// qualityAcids maps each fatty-acid derived index to the acids it sums.
var qualityAcids = map[string][]string{
	Hardness:     {Lauric, Myristic, Palmitic, Stearic},
	Cleansing:    {Lauric, Myristic},
	Conditioning: {Oleic, Linoleic, Linolenic, Ricinoleic},
	Bubbly:       {Lauric, Myristic, Ricinoleic},
	Creamy:       {Palmitic, Stearic, Ricinoleic},
}

// Range is an inclusive ideal range for a quality index.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// QualityRanges holds the commonly published ideal ranges. They are used for
// display only and never alter a computed value.
var QualityRanges = map[string]Range{
	Hardness:     {29, 54},
	Cleansing:    {12, 22},
	Conditioning: {44, 69},
	Bubbly:       {14, 33},
	Creamy:       {16, 35},
	Iodine:       {41, 70},
	INS:          {136, 165},
}

// InRange reports whether value lies in the ideal range of the named quality.
// Unknown qualities are always in range.
func InRange(quality string, value float64) bool {
	r, ok := QualityRanges[quality]
	if !ok {
		return true
	}
	return r.Contains(value)
}

func qualities(profile map[string]float64, lines []resolvedLine, totalOils float64) map[string]float64 {
	out := make(map[string]float64, len(Qualities))
	for name, acids := range qualityAcids {
		sum := 0.0
		for _, acid := range acids {
			sum += profile[acid]
		}
		out[name] = sum
	}

	iodine, ins := 0.0, 0.0
	for _, rl := range lines {
		share := rl.line.WeightGrams / totalOils
		iodine += share * rl.oil.Iodine
		ins += share * rl.oil.INS
	}
	out[Iodine] = iodine
	out[INS] = ins
	return out
}
