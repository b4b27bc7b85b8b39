package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"prodvision/api/internal/align"
	"prodvision/api/internal/config"
	"prodvision/api/internal/search"
	"prodvision/api/internal/settings"
	"prodvision/api/internal/store"
	"prodvision/api/internal/util"
)

// IssueInput is one slot of the issues array in an entry submission. A nil
// slot in the array is an explicit empty marker, not an omission.
type IssueInput struct {
	RowID       string `json:"rowId,omitempty"`
	Description string `json:"description"`
	TimeLoss    string `json:"timeLoss"`
}

// RecordInput is one slot of the problemRecords or incidentRecords array.
type RecordInput struct {
	RowID  string `json:"rowId,omitempty"`
	Number string `json:"number"`
	Status string `json:"status"`
	Link   string `json:"link"`
}

// EntryInput is the submission payload for one date/application entry. The
// three arrays are position-aligned; shorter arrays implicitly have trailing
// empty slots.
type EntryInput struct {
	Date            string `json:"date"`
	ApplicationName string `json:"applicationName"`
	Day             string `json:"day"`
	PRCMailText     string `json:"prcMailText"`
	PRCMailStatus   string `json:"prcMailStatus"`
	CPAlertsText    string `json:"cpAlertsText"`
	CPAlertsStatus  string `json:"cpAlertsStatus"`
	QualityStatus   string `json:"qualityStatus"`
	Remarks         string `json:"remarks"`

	Issues    []*IssueInput  `json:"issues"`
	Problems  []*RecordInput `json:"problemRecords"`
	Incidents []*RecordInput `json:"incidentRecords"`
}

// EntryView is the read shape for one entry: common fields plus three
// position-aligned arrays where null marks an explicitly empty slot.
type EntryView struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	ApplicationName string `json:"applicationName"`
	Day             string `json:"day"`
	PRCMailText     string `json:"prcMailText"`
	PRCMailStatus   string `json:"prcMailStatus"`
	CPAlertsText    string `json:"cpAlertsText"`
	CPAlertsStatus  string `json:"cpAlertsStatus"`
	QualityStatus   string `json:"qualityStatus"`
	Remarks         string `json:"remarks"`

	Issues    []*align.SubRecord `json:"issues"`
	Problems  []*align.SubRecord `json:"problemRecords"`
	Incidents []*align.SubRecord `json:"incidentRecords"`
}

// RowPatchInput is the body of a per-row update. Absent fields stay untouched.
type RowPatchInput struct {
	RowPosition *int `json:"rowPosition"`

	IssueDescription *string `json:"issueDescription"`
	TimeLoss         *string `json:"timeLoss"`

	ProblemNumber *string `json:"problemRecordNumber"`
	ProblemStatus *string `json:"problemRecordStatus"`
	ProblemLink   *string `json:"problemRecordLink"`

	IncidentNumber *string `json:"incidentRecordNumber"`
	IncidentStatus *string `json:"incidentRecordStatus"`
	IncidentLink   *string `json:"incidentRecordLink"`

	Day            *string `json:"day"`
	PRCMailText    *string `json:"prcMailText"`
	PRCMailStatus  *string `json:"prcMailStatus"`
	CPAlertsText   *string `json:"cpAlertsText"`
	CPAlertsStatus *string `json:"cpAlertsStatus"`
	QualityStatus  *string `json:"qualityStatus"`
	Remarks        *string `json:"remarks"`
}

var allowedApplications = map[string]struct{}{
	"CVAR ALL": {},
	"CVAR NYQ": {},
	"XVA":      {},
	"REG":      {},
	"OTHERS":   {},
}

var allowedRecordStatuses = map[string]struct{}{
	"active": {},
	"closed": {},
}

var allowedCommonStatuses = map[string]struct{}{
	"Red":    {},
	"Yellow": {},
	"Green":  {},
}

var allowedKindFilters = map[store.KindFilter]struct{}{
	store.FilterNone:     {},
	store.FilterIssue:    {},
	store.FilterProblem:  {},
	store.FilterIncident: {},
	store.FilterTimeLoss: {},
}

type dataStore interface {
	CreateRow(context.Context, store.Row) (store.Row, error)
	GetRow(context.Context, string) (store.Row, error)
	UpdateRow(context.Context, string, store.RowPatch) (store.Row, error)
	DeleteRow(context.Context, string) error
	ListRows(context.Context, store.GroupingKey) ([]store.Row, error)
	GetMainRow(context.Context, store.GroupingKey) (*store.Row, error)
	ListApplicationRows(context.Context, string, string, string) ([]store.Row, error)
	ListKindRows(context.Context, string, store.KindFilter, string, string) ([]store.Row, error)
	DeleteGroup(context.Context, store.GroupingKey) (int, error)
	Summary(context.Context, string) (store.SummaryCounts, error)
	Ping(ctx context.Context) error
}

type settingsStore interface {
	Get(ctx context.Context, applicationName, name string) (string, error)
	Set(ctx context.Context, applicationName, name, value string) error
	All(ctx context.Context, applicationName string) (map[string]string, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	search   *search.Service
	settings settingsStore
}

// New wires the service. searchService and settingsStore may be nil when the
// corresponding backend is not configured.
func New(cfg config.Config, dataStore *store.PostgresStore, searchService *search.Service, settingsStore *settings.RedisStore) *Service {
	s := &Service{
		cfg:    cfg,
		store:  dataStore,
		search: searchService,
	}
	if settingsStore != nil {
		s.settings = settingsStore
	}
	return s
}

// Ready reports whether the backing store answers.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// mutationContext bounds how long a row mutation may run.
func (s *Service) mutationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.MutationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.MutationTimeout)
}

// CreateEntry validates and persists a new entry: one main row carrying the
// common fields plus one row per non-empty sub-record slot. Validation runs
// to completion before the first row is written.
func (s *Service) CreateEntry(ctx context.Context, in EntryInput) (EntryView, error) {
	ctx, cancel := s.mutationContext(ctx)
	defer cancel()
	if err := validateEntry(in); err != nil {
		return EntryView{}, err
	}
	arrays, err := align.SerializeCards(cardsFromInput(in))
	if err != nil {
		return EntryView{}, err
	}

	key := store.GroupingKey{Date: in.Date, ApplicationName: in.ApplicationName}
	existing, err := s.store.GetMainRow(ctx, key)
	if err != nil {
		return EntryView{}, err
	}
	if existing != nil {
		return EntryView{}, domainError(http.StatusConflict, "ENTRY_EXISTS",
			fmt.Sprintf("entry %s already exists", key), nil)
	}

	main := store.Row{
		ID:             util.NewID("row"),
		GroupingKey:    key,
		RowKind:        store.RowKindMain,
		Day:            in.Day,
		PRCMailText:    in.PRCMailText,
		PRCMailStatus:  in.PRCMailStatus,
		CPAlertsText:   in.CPAlertsText,
		CPAlertsStatus: in.CPAlertsStatus,
		QualityStatus:  in.QualityStatus,
		Remarks:        in.Remarks,
	}
	if _, err := s.store.CreateRow(ctx, main); err != nil {
		return EntryView{}, fmt.Errorf("create main row: %w", err)
	}

	var created []store.Row
	for _, rec := range subRecordSlots(arrays) {
		row, err := s.store.CreateRow(ctx, rowFromSubRecord(key, rec))
		if err != nil {
			return EntryView{}, fmt.Errorf("create %s row: %w", rec.Kind, err)
		}
		created = append(created, row)
	}
	s.indexRows(created)

	return s.GetEntry(ctx, key)
}

// GetEntry reconstructs one entry from its current row set. Alignment is
// computed fresh on every read; nothing positional is cached.
func (s *Service) GetEntry(ctx context.Context, key store.GroupingKey) (EntryView, error) {
	rows, err := s.store.ListRows(ctx, key)
	if err != nil {
		return EntryView{}, err
	}
	if len(rows) == 0 {
		return EntryView{}, &store.NotFoundError{ID: key.String(), GroupingKey: key.String()}
	}
	return s.buildEntryView(key, rows)
}

// UpdateEntry reconciles the submitted arrays against the stored rows: a slot
// whose rowId matches an existing row updates that row in place, a populated
// slot without a match creates a new row, and stored rows no slot claims are
// deleted. Rows of other entries are never touched.
func (s *Service) UpdateEntry(ctx context.Context, key store.GroupingKey, in EntryInput) (EntryView, error) {
	ctx, cancel := s.mutationContext(ctx)
	defer cancel()
	in.Date = key.Date
	in.ApplicationName = key.ApplicationName
	if err := validateEntry(in); err != nil {
		return EntryView{}, err
	}
	arrays, err := align.SerializeCards(cardsFromInput(in))
	if err != nil {
		return EntryView{}, err
	}

	rows, err := s.store.ListRows(ctx, key)
	if err != nil {
		return EntryView{}, err
	}
	if len(rows) == 0 {
		return EntryView{}, &store.NotFoundError{ID: key.String(), GroupingKey: key.String()}
	}

	var main *store.Row
	existing := make([]store.Row, 0, len(rows))
	for i := range rows {
		if rows[i].RowKind == store.RowKindMain {
			if main == nil {
				main = &rows[i]
			}
			continue
		}
		existing = append(existing, rows[i])
	}

	if main == nil {
		mainRow := store.Row{
			ID:          util.NewID("row"),
			GroupingKey: key,
			RowKind:     store.RowKindMain,
		}
		created, err := s.store.CreateRow(ctx, mainRow)
		if err != nil {
			return EntryView{}, fmt.Errorf("create main row: %w", err)
		}
		main = &created
	}
	if _, err := s.store.UpdateRow(ctx, main.ID, store.RowPatch{
		Day:            &in.Day,
		PRCMailText:    &in.PRCMailText,
		PRCMailStatus:  &in.PRCMailStatus,
		CPAlertsText:   &in.CPAlertsText,
		CPAlertsStatus: &in.CPAlertsStatus,
		QualityStatus:  &in.QualityStatus,
		Remarks:        &in.Remarks,
	}); err != nil {
		return EntryView{}, fmt.Errorf("update main row: %w", err)
	}

	byID := make(map[string]store.Row, len(existing))
	for _, row := range existing {
		byID[row.ID] = row
	}

	matched := make(map[string]bool)
	var touched []store.Row
	for _, rec := range subRecordSlots(arrays) {
		if rec.RowID != "" {
			if _, ok := byID[rec.RowID]; ok {
				row, err := s.store.UpdateRow(ctx, rec.RowID, patchFromSubRecord(rec))
				if err != nil {
					return EntryView{}, fmt.Errorf("update %s row: %w", rec.Kind, err)
				}
				matched[rec.RowID] = true
				touched = append(touched, row)
				continue
			}
		}
		row, err := s.store.CreateRow(ctx, rowFromSubRecord(key, rec))
		if err != nil {
			return EntryView{}, fmt.Errorf("create %s row: %w", rec.Kind, err)
		}
		touched = append(touched, row)
	}

	var removed []string
	for _, row := range existing {
		if matched[row.ID] {
			continue
		}
		if err := s.store.DeleteRow(ctx, row.ID); err != nil {
			return EntryView{}, fmt.Errorf("delete %s row: %w", row.RowKind, err)
		}
		removed = append(removed, row.ID)
	}

	s.indexRows(touched)
	s.unindexRows(removed)

	return s.GetEntry(ctx, key)
}

// DeleteEntry removes every row of one grouping key.
func (s *Service) DeleteEntry(ctx context.Context, key store.GroupingKey) error {
	ctx, cancel := s.mutationContext(ctx)
	defer cancel()
	rows, err := s.store.ListRows(ctx, key)
	if err != nil {
		return err
	}

	count, err := s.store.DeleteGroup(ctx, key)
	if err != nil {
		return err
	}
	if count == 0 {
		return &store.NotFoundError{ID: key.String(), GroupingKey: key.String()}
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	s.unindexRows(ids)
	return nil
}

// ListEntries returns the reconstructed entries of one application, newest
// date first, optionally bounded by an inclusive date range.
func (s *Service) ListEntries(ctx context.Context, applicationName, startDate, endDate string) ([]EntryView, error) {
	if err := validateApplication(applicationName); err != nil {
		return nil, err
	}
	rows, err := s.store.ListApplicationRows(ctx, applicationName, startDate, endDate)
	if err != nil {
		return nil, err
	}

	grouped := make(map[store.GroupingKey][]store.Row)
	var order []store.GroupingKey
	for _, row := range rows {
		if _, seen := grouped[row.GroupingKey]; !seen {
			order = append(order, row.GroupingKey)
		}
		grouped[row.GroupingKey] = append(grouped[row.GroupingKey], row)
	}

	views := make([]EntryView, 0, len(order))
	for _, key := range order {
		view, err := s.buildEntryView(key, grouped[key])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ListRows returns individual sub-record rows for row-level filtering.
func (s *Service) ListRows(ctx context.Context, applicationName string, filter store.KindFilter, startDate, endDate string) ([]store.Row, error) {
	if err := validateApplication(applicationName); err != nil {
		return nil, err
	}
	if _, ok := allowedKindFilters[filter]; !ok {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_FAILED",
			fmt.Sprintf("unknown kind filter %q", filter), nil)
	}
	return s.store.ListKindRows(ctx, applicationName, filter, startDate, endDate)
}

// UpdateRow patches one row. No sibling row is read or written.
func (s *Service) UpdateRow(ctx context.Context, rowID string, in RowPatchInput) (store.Row, error) {
	ctx, cancel := s.mutationContext(ctx)
	defer cancel()
	if err := validateRowPatch(in); err != nil {
		return store.Row{}, err
	}
	row, err := s.store.UpdateRow(ctx, rowID, store.RowPatch{
		RowPosition:      in.RowPosition,
		IssueDescription: in.IssueDescription,
		TimeLoss:         in.TimeLoss,
		ProblemNumber:    in.ProblemNumber,
		ProblemStatus:    in.ProblemStatus,
		ProblemLink:      in.ProblemLink,
		IncidentNumber:   in.IncidentNumber,
		IncidentStatus:   in.IncidentStatus,
		IncidentLink:     in.IncidentLink,
		Day:              in.Day,
		PRCMailText:      in.PRCMailText,
		PRCMailStatus:    in.PRCMailStatus,
		CPAlertsText:     in.CPAlertsText,
		CPAlertsStatus:   in.CPAlertsStatus,
		QualityStatus:    in.QualityStatus,
		Remarks:          in.Remarks,
	})
	if err != nil {
		return store.Row{}, err
	}
	s.indexRows([]store.Row{row})
	return row, nil
}

// DeleteRow removes one row. Sibling rows of the same grouping key keep their
// positions; any resulting gap is an explicit empty slot on the next read.
func (s *Service) DeleteRow(ctx context.Context, rowID string) error {
	ctx, cancel := s.mutationContext(ctx)
	defer cancel()
	if err := s.store.DeleteRow(ctx, rowID); err != nil {
		return err
	}
	s.unindexRows([]string{rowID})
	return nil
}

// Summary returns the dashboard header counts for one application.
func (s *Service) Summary(ctx context.Context, applicationName string) (store.SummaryCounts, error) {
	if err := validateApplication(applicationName); err != nil {
		return store.SummaryCounts{}, err
	}
	return s.store.Summary(ctx, applicationName)
}

// Search runs a full-text query over sub-record rows.
func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// Settings returns all dashboard settings of one application. Without a
// configured settings backend every application reads as unconfigured.
func (s *Service) Settings(ctx context.Context, applicationName string) (map[string]string, error) {
	if err := validateApplication(applicationName); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return map[string]string{}, nil
	}
	values, err := s.settings.All(ctx, applicationName)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return values, nil
}

// UpdateSettings stores the given settings for one application.
func (s *Service) UpdateSettings(ctx context.Context, applicationName string, values map[string]string) error {
	if err := validateApplication(applicationName); err != nil {
		return err
	}
	if s.settings == nil {
		return domainError(http.StatusServiceUnavailable, "SETTINGS_UNAVAILABLE",
			"settings store is not configured", nil)
	}
	for name, value := range values {
		if err := s.settings.Set(ctx, applicationName, name, value); err != nil {
			return fmt.Errorf("store setting %s: %w", name, err)
		}
	}
	return nil
}

// ReindexSearch pushes every stored row into the search index.
func (s *Service) ReindexSearch(ctx context.Context) {
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
}

// EntryRows returns one renderable display row per position for one entry.
// expanded only controls the collapsed flag on follow-on rows.
func (s *Service) EntryRows(ctx context.Context, key store.GroupingKey, expanded bool) ([]align.DisplayRow, error) {
	rows, err := s.store.ListRows(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &store.NotFoundError{ID: key.String(), GroupingKey: key.String()}
	}
	sets, main, err := s.alignRows(key, rows)
	if err != nil {
		return nil, err
	}
	common := align.CommonFields{
		Date:            key.Date,
		ApplicationName: key.ApplicationName,
	}
	if main != nil {
		common.Day = main.Day
		common.PRCMailText = main.PRCMailText
		common.PRCMailStatus = main.PRCMailStatus
		common.CPAlertsText = main.CPAlertsText
		common.CPAlertsStatus = main.CPAlertsStatus
		common.QualityStatus = main.QualityStatus
		common.Remarks = main.Remarks
	}
	return align.ExpandRows(sets, common, expanded), nil
}

// alignRows reconstructs the item-set sequence for one grouping key's rows,
// folds in the main row's legacy fields and fills derived links.
func (s *Service) alignRows(key store.GroupingKey, rows []store.Row) ([]align.ItemSet, *store.Row, error) {
	var main *store.Row
	records := make([]align.SubRecord, 0, len(rows))
	for i := range rows {
		if rows[i].RowKind == store.RowKindMain {
			if main == nil {
				main = &rows[i]
			}
			continue
		}
		records = append(records, subRecordFromRow(rows[i]))
	}

	sets, err := align.Reconstruct(key.String(), records)
	if err != nil {
		return nil, nil, err
	}
	if main != nil {
		sets = align.MergeLegacy(sets, align.LegacyFields{
			IssueDescription: main.IssueDescription,
			TimeLoss:         main.TimeLoss,
			ProblemNumber:    main.ProblemNumber,
			ProblemStatus:    main.ProblemStatus,
			ProblemLink:      main.ProblemLink,
			IncidentNumber:   main.IncidentNumber,
			IncidentStatus:   main.IncidentStatus,
			IncidentLink:     main.IncidentLink,
		})
	}
	s.deriveLinks(sets)
	return sets, main, nil
}

func (s *Service) buildEntryView(key store.GroupingKey, rows []store.Row) (EntryView, error) {
	sets, main, err := s.alignRows(key, rows)
	if err != nil {
		return EntryView{}, err
	}

	view := EntryView{
		ID:              key.String(),
		Date:            key.Date,
		ApplicationName: key.ApplicationName,
		Issues:          make([]*align.SubRecord, len(sets)),
		Problems:        make([]*align.SubRecord, len(sets)),
		Incidents:       make([]*align.SubRecord, len(sets)),
	}
	if main != nil {
		view.Day = main.Day
		view.PRCMailText = main.PRCMailText
		view.PRCMailStatus = main.PRCMailStatus
		view.CPAlertsText = main.CPAlertsText
		view.CPAlertsStatus = main.CPAlertsStatus
		view.QualityStatus = main.QualityStatus
		view.Remarks = main.Remarks
	}
	for i, set := range sets {
		view.Issues[i] = set.Issue
		view.Problems[i] = set.Problem
		view.Incidents[i] = set.Incident
	}
	return view, nil
}

// deriveLinks fills in the canonical tracker URL for records that carry a
// number but no explicit link.
func (s *Service) deriveLinks(sets []align.ItemSet) {
	for i := range sets {
		if rec := sets[i].Problem; rec != nil && rec.Number != "" && rec.Link == "" {
			rec.Link = fmt.Sprintf(s.cfg.ProblemLinkTemplate, rec.Number)
		}
		if rec := sets[i].Incident; rec != nil && rec.Number != "" && rec.Link == "" {
			rec.Link = fmt.Sprintf(s.cfg.IncidentLinkTemplate, rec.Number)
		}
	}
}

func (s *Service) indexRows(rows []store.Row) {
	if s.search == nil || len(rows) == 0 {
		return
	}
	records := make([]search.RowRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, searchRecord(row))
	}
	s.search.IndexRows(records)
}

func (s *Service) unindexRows(ids []string) {
	if s.search == nil || len(ids) == 0 {
		return
	}
	s.search.DeleteRows(ids)
}

func searchRecord(row store.Row) search.RowRecord {
	rec := search.RowRecord{
		ID:              row.ID,
		Kind:            string(row.RowKind),
		Date:            row.GroupingKey.Date,
		ApplicationName: row.GroupingKey.ApplicationName,
	}
	switch row.RowKind {
	case store.RowKindIssue:
		rec.Text = row.IssueDescription
	case store.RowKindProblem:
		rec.Number = row.ProblemNumber
		rec.Status = row.ProblemStatus
	case store.RowKindIncident:
		rec.Number = row.IncidentNumber
		rec.Status = row.IncidentStatus
	case store.RowKindMain:
		rec.Text = row.Remarks
		rec.Number = strings.TrimSpace(row.ProblemNumber + " " + row.IncidentNumber)
	}
	return rec
}

// cardsFromInput zips the three submitted arrays into one card per position.
// The longest array sets the length; shorter arrays contribute empty slots.
func cardsFromInput(in EntryInput) []align.Card {
	n := len(in.Issues)
	if len(in.Problems) > n {
		n = len(in.Problems)
	}
	if len(in.Incidents) > n {
		n = len(in.Incidents)
	}
	cards := make([]align.Card, n)
	for i := range cards {
		card := align.Card{Position: i}
		if i < len(in.Issues) && in.Issues[i] != nil {
			card.IssueText = in.Issues[i].Description
			card.TimeLoss = in.Issues[i].TimeLoss
			card.IssueRowID = in.Issues[i].RowID
		}
		if i < len(in.Problems) && in.Problems[i] != nil {
			card.ProblemNumber = in.Problems[i].Number
			card.ProblemStatus = in.Problems[i].Status
			card.ProblemLink = in.Problems[i].Link
			card.ProblemRowID = in.Problems[i].RowID
		}
		if i < len(in.Incidents) && in.Incidents[i] != nil {
			card.IncidentNumber = in.Incidents[i].Number
			card.IncidentStatus = in.Incidents[i].Status
			card.IncidentLink = in.Incidents[i].Link
			card.IncidentRowID = in.Incidents[i].RowID
		}
		cards[i] = card
	}
	return cards
}

// subRecordSlots flattens serialized card arrays into the non-empty records,
// position order within each kind.
func subRecordSlots(arrays align.CardArrays) []*align.SubRecord {
	var records []*align.SubRecord
	for _, slot := range arrays.Issues {
		if slot != nil {
			records = append(records, slot)
		}
	}
	for _, slot := range arrays.Problems {
		if slot != nil {
			records = append(records, slot)
		}
	}
	for _, slot := range arrays.Incidents {
		if slot != nil {
			records = append(records, slot)
		}
	}
	return records
}

func rowFromSubRecord(key store.GroupingKey, rec *align.SubRecord) store.Row {
	row := store.Row{
		ID:          util.NewID("row"),
		GroupingKey: key,
		RowKind:     store.RowKind(rec.Kind),
		RowPosition: rec.Position,
	}
	switch rec.Kind {
	case align.KindIssue:
		row.IssueDescription = rec.Description
		row.TimeLoss = rec.TimeLoss
	case align.KindProblem:
		row.ProblemNumber = rec.Number
		row.ProblemStatus = rec.Status
		row.ProblemLink = rec.Link
	case align.KindIncident:
		row.IncidentNumber = rec.Number
		row.IncidentStatus = rec.Status
		row.IncidentLink = rec.Link
	}
	return row
}

func patchFromSubRecord(rec *align.SubRecord) store.RowPatch {
	position := rec.Position
	patch := store.RowPatch{RowPosition: &position}
	switch rec.Kind {
	case align.KindIssue:
		patch.IssueDescription = &rec.Description
		patch.TimeLoss = &rec.TimeLoss
	case align.KindProblem:
		patch.ProblemNumber = &rec.Number
		patch.ProblemStatus = &rec.Status
		patch.ProblemLink = &rec.Link
	case align.KindIncident:
		patch.IncidentNumber = &rec.Number
		patch.IncidentStatus = &rec.Status
		patch.IncidentLink = &rec.Link
	}
	return patch
}

func subRecordFromRow(row store.Row) align.SubRecord {
	rec := align.SubRecord{
		Kind:     align.Kind(row.RowKind),
		RowID:    row.ID,
		Position: row.RowPosition,
	}
	switch row.RowKind {
	case store.RowKindIssue:
		rec.Description = row.IssueDescription
		rec.TimeLoss = row.TimeLoss
	case store.RowKindProblem:
		rec.Number = row.ProblemNumber
		rec.Status = row.ProblemStatus
		rec.Link = row.ProblemLink
	case store.RowKindIncident:
		rec.Number = row.IncidentNumber
		rec.Status = row.IncidentStatus
		rec.Link = row.IncidentLink
	}
	return rec
}

func validateEntry(in EntryInput) error {
	if strings.TrimSpace(in.Date) == "" {
		return domainError(http.StatusBadRequest, "VALIDATION_FAILED", "date is required", nil)
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return domainError(http.StatusBadRequest, "VALIDATION_FAILED",
			fmt.Sprintf("date %q is not YYYY-MM-DD", in.Date), nil)
	}
	if err := validateApplication(in.ApplicationName); err != nil {
		return err
	}
	for name, value := range map[string]string{
		"prcMailStatus":  in.PRCMailStatus,
		"cpAlertsStatus": in.CPAlertsStatus,
		"qualityStatus":  in.QualityStatus,
	} {
		if value == "" {
			continue
		}
		if _, ok := allowedCommonStatuses[value]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_FAILED",
				fmt.Sprintf("%s must be Red, Yellow or Green", name), nil)
		}
	}
	for i, rec := range in.Problems {
		if err := validateRecordStatus("problem record", i, rec); err != nil {
			return err
		}
	}
	for i, rec := range in.Incidents {
		if err := validateRecordStatus("incident record", i, rec); err != nil {
			return err
		}
	}
	return align.ValidateCards(cardsFromInput(in))
}

func validateRecordStatus(kind string, position int, rec *RecordInput) error {
	if rec == nil || rec.Status == "" {
		return nil
	}
	if _, ok := allowedRecordStatuses[rec.Status]; !ok {
		return domainError(http.StatusBadRequest, "VALIDATION_FAILED",
			fmt.Sprintf("%s at position %d: status must be active or closed", kind, position),
			map[string]any{"position": position})
	}
	return nil
}

func validateRowPatch(in RowPatchInput) error {
	if in.RowPosition != nil && *in.RowPosition < 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_FAILED", "rowPosition must not be negative", nil)
	}
	for name, value := range map[string]*string{
		"problemRecordStatus":  in.ProblemStatus,
		"incidentRecordStatus": in.IncidentStatus,
	} {
		if value == nil || *value == "" {
			continue
		}
		if _, ok := allowedRecordStatuses[*value]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_FAILED",
				fmt.Sprintf("%s must be active or closed", name), nil)
		}
	}
	for name, value := range map[string]*string{
		"prcMailStatus":  in.PRCMailStatus,
		"cpAlertsStatus": in.CPAlertsStatus,
		"qualityStatus":  in.QualityStatus,
	} {
		if value == nil || *value == "" {
			continue
		}
		if _, ok := allowedCommonStatuses[*value]; !ok {
			return domainError(http.StatusBadRequest, "VALIDATION_FAILED",
				fmt.Sprintf("%s must be Red, Yellow or Green", name), nil)
		}
	}
	return nil
}

func validateApplication(name string) error {
	if _, ok := allowedApplications[name]; !ok {
		return domainError(http.StatusBadRequest, "VALIDATION_FAILED",
			fmt.Sprintf("unknown application %q", name), nil)
	}
	return nil
}
