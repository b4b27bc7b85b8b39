package align

import "strings"

// Card is the view model for one editable item set in the entry dialog. Row
// IDs are carried through from a previous read so an edit can target the
// exact rows it came from.
type Card struct {
	Position int `json:"position"`

	IssueText   string `json:"issueText"`
	TimeLoss    string `json:"timeLoss"`
	IssueRowID  string `json:"issueRowId,omitempty"`

	ProblemNumber string `json:"problemNumber"`
	ProblemStatus string `json:"problemStatus"`
	ProblemLink   string `json:"problemLink"`
	ProblemRowID  string `json:"problemRowId,omitempty"`

	IncidentNumber string `json:"incidentNumber"`
	IncidentStatus string `json:"incidentStatus"`
	IncidentLink   string `json:"incidentLink"`
	IncidentRowID  string `json:"incidentRowId,omitempty"`
}

// CardArrays is the write-side wire form: three arrays of equal length, one
// slot per card, nil marking an explicitly empty slot. Omitting empty slots
// instead of marking them would shift positions on the next read.
type CardArrays struct {
	Issues    []*SubRecord
	Problems  []*SubRecord
	Incidents []*SubRecord
}

// ValidateCards enforces the anchoring rule: a problem or incident record is
// only allowed in a slot whose card also describes an issue. It runs before
// serialization and before any row is written.
func ValidateCards(cards []Card) error {
	for i, card := range cards {
		anchored := strings.TrimSpace(card.IssueText) != ""
		if anchored {
			continue
		}
		if strings.TrimSpace(card.ProblemNumber) != "" {
			return &ValidationError{Position: i, Message: "problem record has no anchoring issue"}
		}
		if strings.TrimSpace(card.IncidentNumber) != "" {
			return &ValidationError{Position: i, Message: "incident record has no anchoring issue"}
		}
	}
	return nil
}

// SerializeCards converts an ordered card sequence into position-aligned
// arrays. All three arrays have exactly one slot per card; a slot whose card
// has no data of that kind holds an explicit nil marker.
func SerializeCards(cards []Card) (CardArrays, error) {
	if err := ValidateCards(cards); err != nil {
		return CardArrays{}, err
	}
	arrays := CardArrays{
		Issues:    make([]*SubRecord, len(cards)),
		Problems:  make([]*SubRecord, len(cards)),
		Incidents: make([]*SubRecord, len(cards)),
	}
	for i, card := range cards {
		if text := strings.TrimSpace(card.IssueText); text != "" {
			arrays.Issues[i] = &SubRecord{
				Kind:        KindIssue,
				RowID:       card.IssueRowID,
				Position:    i,
				Description: text,
				TimeLoss:    strings.TrimSpace(card.TimeLoss),
			}
		}
		if num := strings.TrimSpace(card.ProblemNumber); num != "" {
			arrays.Problems[i] = &SubRecord{
				Kind:     KindProblem,
				RowID:    card.ProblemRowID,
				Position: i,
				Number:   num,
				Status:   card.ProblemStatus,
				Link:     strings.TrimSpace(card.ProblemLink),
			}
		}
		if num := strings.TrimSpace(card.IncidentNumber); num != "" {
			arrays.Incidents[i] = &SubRecord{
				Kind:     KindIncident,
				RowID:    card.IncidentRowID,
				Position: i,
				Number:   num,
				Status:   card.IncidentStatus,
				Link:     strings.TrimSpace(card.IncidentLink),
			}
		}
	}
	return arrays, nil
}

// CardsFromItemSets is the serializer's inverse for the edit round trip: one
// card per position with exactly that position's payload and empty-marker
// state. No card is synthesized for a position the sequence does not have,
// and none is dropped.
func CardsFromItemSets(sets []ItemSet) []Card {
	cards := make([]Card, len(sets))
	for i, set := range sets {
		card := Card{Position: set.Position}
		if set.Issue != nil {
			card.IssueText = set.Issue.Description
			card.TimeLoss = set.Issue.TimeLoss
			card.IssueRowID = set.Issue.RowID
		}
		if set.Problem != nil {
			card.ProblemNumber = set.Problem.Number
			card.ProblemStatus = set.Problem.Status
			card.ProblemLink = set.Problem.Link
			card.ProblemRowID = set.Problem.RowID
		}
		if set.Incident != nil {
			card.IncidentNumber = set.Incident.Number
			card.IncidentStatus = set.Incident.Status
			card.IncidentLink = set.Incident.Link
			card.IncidentRowID = set.Incident.RowID
		}
		cards[i] = card
	}
	return cards
}
