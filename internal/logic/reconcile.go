package logic

import "formbox/internal/model"

// Reconcile prunes answers belonging to questions that are not visible under
// the proposed response set, over the entire form. Pruning an answer can hide
// further questions downstream, so visibility is recomputed until the set is
// stable; answers only ever get removed (an absent answer can never satisfy a
// rule), which bounds the loop by the number of questions. The result is a
// new map; the input is never mutated, and reconciling an already reconciled
// set returns it unchanged.
func Reconcile(responses model.FormResponse, form *model.FormConfig) model.FormResponse {
	current := responses.Clone()
	for {
		visible := VisibleSet(form, current)
		cleaned := make(model.FormResponse, len(current))
		for id, answer := range current {
			if visible[id] {
				cleaned[id] = answer
			}
		}
		if len(cleaned) == len(current) {
			return cleaned
		}
		current = cleaned
	}
}
