// Package forecast steps per-station pollutant sequences into the
// future and fans the work out across deduplicated station clusters.
package forecast

import (
	"github.com/ariamap/ariamap/internal/geo"
)

// DefaultClusterEps is the neighborhood radius, in coordinate degrees,
// inside which stations are considered duplicates of each other.
const DefaultClusterEps = 0.21

// Dedupe groups coordinates by density clustering and replaces every
// cluster with its arithmetic-mean centroid. With a minimum cluster
// size of one there is no noise bucket: every point lands in exactly
// one cluster, singletons included, so the clustering reduces to the
// connected components of the eps-neighborhood graph.
func Dedupe(coords []geo.Point, eps float64) []geo.Point {
	if eps <= 0 {
		eps = DefaultClusterEps
	}
	if len(coords) == 0 {
		return nil
	}

	labels := make([]int, len(coords))
	for i := range labels {
		labels[i] = -1
	}

	epsSq := eps * eps
	next := 0
	for i := range coords {
		if labels[i] != -1 {
			continue
		}
		// Flood-fill one component.
		labels[i] = next
		queue := []int{i}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for j := range coords {
				if labels[j] != -1 {
					continue
				}
				dLon := coords[cur].Lon - coords[j].Lon
				dLat := coords[cur].Lat - coords[j].Lat
				if dLon*dLon+dLat*dLat <= epsSq {
					labels[j] = next
					queue = append(queue, j)
				}
			}
		}
		next++
	}

	centroids := make([]geo.Point, next)
	counts := make([]int, next)
	for i, p := range coords {
		c := labels[i]
		centroids[c].Lon += p.Lon
		centroids[c].Lat += p.Lat
		counts[c]++
	}
	for c := range centroids {
		centroids[c].Lon /= float64(counts[c])
		centroids[c].Lat /= float64(counts[c])
	}
	return centroids
}
