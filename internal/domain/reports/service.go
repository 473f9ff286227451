package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/health"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/blob"
	"zoo-management/internal/ports/events"
)

var (
	ErrNotFound      = sentinel.Wrap(sentinel.ErrNotFound, "report not found")
	ErrExportMissing = sentinel.Wrap(sentinel.ErrNotFound, "report export not found")
	ErrArchived      = sentinel.Wrap(sentinel.ErrAlreadyFinalized, "archived reports cannot be published")
)

const maxTitleLen = 200

type AnimalSource interface {
	Stats(ctx context.Context) (animals.Stats, error)
	DueForHealthCheck(ctx context.Context, offset, limit int) ([]animals.Animal, int, error)
}

type HealthSource interface {
	Stats(ctx context.Context) (health.Stats, error)
	List(ctx context.Context, f health.Filter) ([]health.Record, int, error)
}

type VisitorSource interface {
	Stats(ctx context.Context) (visitors.Stats, error)
	List(ctx context.Context, f visitors.Filter) ([]visitors.Visitor, int, error)
}

type TicketSource interface {
	Stats(ctx context.Context) (tickets.Stats, error)
	List(ctx context.Context, f tickets.Filter) ([]tickets.Ticket, int, error)
}

type ExhibitSource interface {
	Stats(ctx context.Context) (exhibits.Stats, error)
}

// Sources son los services de los que se leen los datos de cada reporte.
type Sources struct {
	Animals  AnimalSource
	Health   HealthSource
	Visitors VisitorSource
	Tickets  TicketSource
	Exhibits ExhibitSource
}

type Service struct {
	repo      Repository
	blobs     blob.Store
	src       Sources
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(repo Repository, blobs blob.Store, src Sources, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		blobs: blobs,
		src:   src,
		loc:   time.Local,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateInput: EndDate es inclusivo (se cubre el día completo).
type GenerateInput struct {
	Title       string
	Period      Period
	StartDate   time.Time
	EndDate     time.Time
	GeneratedBy string
}

type builder func(ctx context.Context, w window) (content, error)

func (s *Service) GenerateAnimalHealth(ctx context.Context, in GenerateInput) (Report, error) {
	return s.generate(ctx, TypeHealth, in, s.buildHealth)
}

func (s *Service) GenerateVisitorAnalytics(ctx context.Context, in GenerateInput) (Report, error) {
	return s.generate(ctx, TypeVisitor, in, s.buildVisitor)
}

func (s *Service) GenerateFinancial(ctx context.Context, in GenerateInput) (Report, error) {
	return s.generate(ctx, TypeFinancial, in, s.buildFinancial)
}

func (s *Service) GenerateExhibitOccupancy(ctx context.Context, in GenerateInput) (Report, error) {
	return s.generate(ctx, TypeExhibit, in, s.buildExhibit)
}

// generate calcula los datos, sube el export y recién entonces guarda el
// reporte; si el guardado falla el export se borra.
func (s *Service) generate(ctx context.Context, typ Type, in GenerateInput, build builder) (Report, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.GeneratedBy = strings.TrimSpace(in.GeneratedBy)
	if in.Period == "" {
		in.Period = PeriodCustom
	}
	if err := validateInput(in); err != nil {
		return Report{}, err
	}

	c, err := build(ctx, window{from: in.StartDate, to: in.EndDate.AddDate(0, 0, 1)})
	if err != nil {
		return Report{}, fmt.Errorf("build %s report: %w", typ, err)
	}
	raw, err := json.Marshal(c.data)
	if err != nil {
		return Report{}, fmt.Errorf("encode report data: %w", err)
	}

	now := s.now()
	r := Report{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Type:            typ,
		Period:          in.Period,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		GeneratedBy:     in.GeneratedBy,
		Data:            raw,
		Summary:         c.summary,
		Recommendations: c.recommendations,
		Format:          FormatJSON,
		Status:          StatusGenerated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if r.Title == "" {
		r.Title = defaultTitle(typ, in.StartDate, in.EndDate)
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	r.ExportKey = exportKey(r)

	doc, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Report{}, fmt.Errorf("encode report export: %w", err)
	}
	if err := s.blobs.Put(ctx, r.ExportKey, "application/json", doc); err != nil {
		return Report{}, fmt.Errorf("upload report export: %w", err)
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.dropExport(ctx, r.ExportKey)
		return Report{}, err
	}

	logger.FromContext(ctx).Info("report generated", map[string]any{
		"report_id": r.ID,
		"type":      string(r.Type),
	})
	events.Emit(ctx, s.publisher, events.TopicReportGenerated, r.ID, map[string]any{
		"type":         r.Type,
		"generated_by": r.GeneratedBy,
		"export_key":   r.ExportKey,
	})
	return r, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Report, error) {
	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Report{}, ErrNotFound
	}
	return r, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Report, int, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, sentinel.Invalid("invalid report type")
	}
	if f.Period != "" && !f.Period.Valid() {
		return nil, 0, sentinel.Invalid("invalid report period")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, sentinel.Invalid("invalid report status")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) ByType(ctx context.Context, typ Type, offset, limit int) ([]Report, int, error) {
	if !typ.Valid() {
		return nil, 0, sentinel.Invalid("invalid report type")
	}
	return s.repo.List(ctx, Filter{Type: typ, Offset: offset, Limit: limit})
}

// Export devuelve el documento JSON subido al generar el reporte.
func (s *Service) Export(ctx context.Context, id string) (Report, []byte, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Report{}, nil, err
	}
	data, err := s.blobs.Get(ctx, r.ExportKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Report{}, nil, ErrExportMissing
	}
	if err != nil {
		return Report{}, nil, fmt.Errorf("download report export: %w", err)
	}
	return r, data, nil
}

// Publish es idempotente; un reporte archivado no vuelve a publicarse.
func (s *Service) Publish(ctx context.Context, id string) (Report, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Report{}, err
	}
	switch r.Status {
	case StatusPublished:
		return r, nil
	case StatusArchived:
		return Report{}, ErrArchived
	}
	return s.setStatus(ctx, r.ID, StatusPublished)
}

func (s *Service) Archive(ctx context.Context, id string) (Report, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if r.Status == StatusArchived {
		return r, nil
	}
	return s.setStatus(ctx, r.ID, StatusArchived)
}

// Delete borra el reporte y después su export (best-effort).
func (s *Service) Delete(ctx context.Context, id string) error {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, r.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.dropExport(ctx, r.ExportKey)
	return nil
}

func (s *Service) setStatus(ctx context.Context, id string, status Status) (Report, error) {
	r, err := s.repo.SetStatus(ctx, id, status, s.now())
	if errors.Is(err, sentinel.ErrNotFound) {
		return Report{}, ErrNotFound
	}
	return r, err
}

func (s *Service) dropExport(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		logger.FromContext(ctx).Warn("report export cleanup failed", map[string]any{
			"export_key": key,
			"error":      err.Error(),
		})
	}
}

func validateInput(in GenerateInput) error {
	if in.GeneratedBy == "" {
		return sentinel.Invalid("generated_by is required")
	}
	if len(in.Title) > maxTitleLen {
		return sentinel.Invalid(fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	if !in.Period.Valid() {
		return sentinel.Invalid("invalid report period")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return sentinel.Invalid("start_date and end_date are required")
	}
	if !in.EndDate.After(in.StartDate) {
		return sentinel.Invalid("end_date must be after start_date")
	}
	return nil
}

var typeTitles = map[Type]string{
	TypeHealth:    "Animal health report",
	TypeVisitor:   "Visitor analytics report",
	TypeFinancial: "Financial report",
	TypeExhibit:   "Exhibit occupancy report",
}

func defaultTitle(typ Type, from, to time.Time) string {
	return fmt.Sprintf("%s %s to %s", typeTitles[typ], from.Format(time.DateOnly), to.Format(time.DateOnly))
}

func exportKey(r Report) string {
	return fmt.Sprintf("reports/%s/%s/%s.json", r.Type, r.CreatedAt.UTC().Format("2006/01"), r.ID)
}
