// Package schema validates answer values against the fields a flow declares.
//
// Each field kind maps to a Type: single-choice fields to Enum, multi-choice
// to Members, scales to Range, free text to Text and toggles to Bool.
//
//	s, err := schema.FromFields(graph.Fields())
//	if err != nil {
//	    return err
//	}
//	if err := s.ValidateValue("intensity", 7); err != nil {
//	    // field "intensity": 7 is outside 1..5
//	}
//
// Validation failures match domain.ErrInvalidAnswer with errors.Is.
package schema
