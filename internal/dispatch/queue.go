package dispatch

import (
	"sort"

	"hospitalDroneLogistics/models"
)

type scoredRequest struct {
	req   *models.Request
	score float64
}

// orderedPending compacts the queue to pending requests, refreshes their
// waiting times, and returns them in triage order: CTAS class first, vital
// priority score within a class, then the split and timestamp tie-breaks.
// Scores are computed once per pass against the cached patient snapshots.
func (d *Dispatcher) orderedPending() []scoredRequest {
	now := d.clock.Now()
	pending := d.queue[:0]
	var ordered []scoredRequest
	for _, req := range d.queue {
		if req.Status != models.RequestStatusPending {
			continue
		}
		req.WaitingTimeMinutes = now.Sub(req.Timestamp).Minutes()
		pending = append(pending, req)
		ordered = append(ordered, scoredRequest{
			req:   req,
			score: req.VitalPriorityScore(d.patientCache[req.ID]),
		})
	}
	d.queue = pending

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].req.HigherPriorityThan(ordered[j].req, ordered[i].score, ordered[j].score)
	})
	return ordered
}
