package align

// CommonFields are the date-level fields shared by every row of a grouping
// key. They live on the main row and render only on the first display row.
type CommonFields struct {
	Date            string `json:"date"`
	Day             string `json:"day"`
	ApplicationName string `json:"applicationName"`
	PRCMailText     string `json:"prcMailText"`
	PRCMailStatus   string `json:"prcMailStatus"`
	CPAlertsText    string `json:"cpAlertsText"`
	CPAlertsStatus  string `json:"cpAlertsStatus"`
	QualityStatus   string `json:"qualityStatus"`
	Remarks         string `json:"remarks"`
}

// DisplayRow is one renderable table row. The first row of a grouping key
// carries the common fields and the count of follow-on rows hidden while
// collapsed; follow-on rows carry only their slot's payloads.
type DisplayRow struct {
	Position    int           `json:"position"`
	First       bool          `json:"first"`
	Common      *CommonFields `json:"common,omitempty"`
	HiddenCount int           `json:"hiddenCount,omitempty"`
	Collapsed   bool          `json:"collapsed"`
	Issue       *SubRecord    `json:"issue"`
	Problem     *SubRecord    `json:"problemRecord"`
	Incident    *SubRecord    `json:"incidentRecord"`
}

// ExpandRows turns an item-set sequence into one display row per position.
// expanded controls only the Collapsed flag on follow-on rows; it is display
// state and touches no stored data. The follow-on rows stay in the output
// either way so they remain addressable.
func ExpandRows(sets []ItemSet, common CommonFields, expanded bool) []DisplayRow {
	if len(sets) == 0 {
		sets = []ItemSet{{Position: 0}}
	}
	rows := make([]DisplayRow, len(sets))
	for i, set := range sets {
		row := DisplayRow{
			Position: set.Position,
			Issue:    set.Issue,
			Problem:  set.Problem,
			Incident: set.Incident,
		}
		if i == 0 {
			c := common
			row.First = true
			row.Common = &c
			row.HiddenCount = len(sets) - 1
		} else {
			row.Collapsed = !expanded
		}
		rows[i] = row
	}
	return rows
}
