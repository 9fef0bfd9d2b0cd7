package ingredients

// Marker lists follow WHO guidance and OpenFoodFacts additive classes.
var (
	HarmfulMarkers = []string{
		"trans fat",
		"trans fats",
		"hydrogenated oil",
		"partially hydrogenated",
		"high fructose corn syrup",
		"corn syrup",
		"artificial sweeteners",
		"sodium benzoate",
		"sodium nitrite",
		"msg",
		"monosodium glutamate",
		"artificial colors",
		"red dye",
		"yellow dye",
		"blue dye",
		"bht",
		"bha",
		"tbhq",
		"propyl gallate",
	}

	HealthyMarkers = []string{
		"organic",
		"whole grain",
		"fiber",
		"protein",
		"vitamins",
		"minerals",
		"omega-3",
		"probiotics",
		"antioxidants",
		"natural flavor",
		"sea salt",
		"coconut oil",
		"olive oil",
	}
)

const (
	harmfulDelta = -3
	healthyDelta = 2

	sugarDelta    = -2
	sodiumDelta   = -1
	vitaminDelta  = 1
	fiberDelta    = 2
	maxCandidates = 20
	minRunes      = 3
	maxRunes      = 49
)
