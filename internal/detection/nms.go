package detection

import "sort"

// NMS performs class-aware non-maximum suppression.
//
// Detections are visited in descending confidence order (stable for ties);
// a detection is dropped when it overlaps an already kept detection of the
// same label by more than iouThreshold. The result is in descending
// confidence order. The input slice is not modified.
func NMS(dets []Detection, iouThreshold float64) []Detection {
	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].Label != sorted[i].Label {
				continue
			}
			if IoU(sorted[i], sorted[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
