package geo

// Bounding boxes of the deployment regions. The subregion box is the
// tight envelope of the Lecce municipality stations.
var (
	PugliaBounds = Bounds{
		North: 42.1,
		South: 39.7,
		West:  14.7,
		East:  18.8,
	}

	LecceBounds = Bounds{
		North: 40.401261,
		South: 40.313983,
		West:  18.075689,
		East:  18.254114,
	}
)
