package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type memPromptRepo struct {
	mu        sync.Mutex
	seq       int
	prompts   map[string]*domain.Prompt
	insertErr error // if set, Insert returns this error

	distinctCalls int
}

func newMemPromptRepo() *memPromptRepo {
	return &memPromptRepo{prompts: make(map[string]*domain.Prompt)}
}

func clonePrompt(p *domain.Prompt) *domain.Prompt {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.RatedBy = append([]string(nil), p.RatedBy...)
	if p.UpdatedAt != nil {
		ts := *p.UpdatedAt
		c.UpdatedAt = &ts
	}
	return &c
}

// seed stores p directly, assigning an id when missing.
func (r *memPromptRepo) seed(p *domain.Prompt) *domain.Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		r.seq++
		p.ID = fmt.Sprintf("p%03d", r.seq)
	}
	if p.RatedBy == nil {
		p.RatedBy = []string{}
	}
	stored := clonePrompt(p)
	r.prompts[p.ID] = stored
	return clonePrompt(stored)
}

func (r *memPromptRepo) Insert(_ context.Context, p *domain.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.seq++
	p.ID = fmt.Sprintf("p%03d", r.seq)
	r.prompts[p.ID] = clonePrompt(p)
	return nil
}

func (r *memPromptRepo) FindByID(_ context.Context, id string) (*domain.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prompts[id]
	if !ok {
		return nil, domain.ErrPromptNotFound
	}
	return clonePrompt(p), nil
}

// List applies the same filters and sort order the real Mongo repo would use.
func (r *memPromptRepo) List(_ context.Context, f ports.ListPromptsFilter) ([]*domain.Prompt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*domain.Prompt{}
	for _, p := range r.prompts {
		if f.TargetModel != "" && f.TargetModel != ports.TargetModelAll && string(p.TargetModel) != f.TargetModel {
			continue
		}
		if len(f.Tags) > 0 && !p.HasAnyTag(f.Tags) {
			continue
		}
		if f.AuthorID != "" && p.AuthorID != f.AuthorID {
			continue
		}
		switch {
		case f.IsPublic != nil:
			if p.IsPublic != *f.IsPublic {
				continue
			}
		case f.ViewerID != "":
			if !p.IsPublic && p.AuthorID != f.ViewerID {
				continue
			}
		default:
			if !p.IsPublic {
				continue
			}
		}
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			hay := strings.ToLower(p.Title + " " + p.Content + " " + strings.Join(p.Tags, " "))
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		matched = append(matched, clonePrompt(p))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case ports.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case ports.SortTopRated:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case ports.SortMostViewed:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		case ports.SortTitleAsc:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case ports.SortTitleDesc:
			if a.Title != b.Title {
				return a.Title > b.Title
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip < 0 {
		skip = 0
	}
	if skip > len(matched) {
		return []*domain.Prompt{}, total, nil
	}
	end := skip + f.Limit
	if f.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *memPromptRepo) Update(_ context.Context, id string, patch ports.PromptPatch, now time.Time) (*domain.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prompts[id]
	if !ok {
		return nil, domain.ErrPromptNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.TargetModel != nil {
		p.TargetModel = *patch.TargetModel
	}
	if patch.Tags != nil {
		p.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.IsPublic != nil {
		p.IsPublic = *patch.IsPublic
	}
	ts := now
	p.UpdatedAt = &ts
	p.Version++
	return clonePrompt(p), nil
}

func (r *memPromptRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prompts[id]; !ok {
		return domain.ErrPromptNotFound
	}
	delete(r.prompts, id)
	return nil
}

func (r *memPromptRepo) DistinctTags(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distinctCalls++
	seen := make(map[string]struct{})
	for _, p := range r.prompts {
		if !p.IsPublic {
			continue
		}
		for _, tag := range p.Tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

// ApplyRating mirrors the version-checked compare-and-swap of the Mongo repo.
func (r *memPromptRepo) ApplyRating(_ context.Context, id string, version int64, raterID string, newAverage float64, newCount int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prompts[id]
	if !ok {
		return false, domain.ErrPromptNotFound
	}
	if p.Version != version || p.AuthorID == raterID || p.RatedByUser(raterID) {
		return false, nil
	}
	p.Rating = newAverage
	p.RatingsCount = newCount
	p.RatedBy = append(p.RatedBy, raterID)
	ts := now
	p.UpdatedAt = &ts
	p.Version++
	return true, nil
}

type memUserRepo struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*domain.User
	appendErr error // if set, AppendPromptID fails
	removeErr error // if set, RemovePromptID fails
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.PromptIDs = append([]string(nil), u.PromptIDs...)
	return &c
}

func (r *memUserRepo) seed(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("u%03d", r.seq)
	}
	if u.PromptIDs == nil {
		u.PromptIDs = []string{}
	}
	r.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (r *memUserRepo) Insert(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("u%03d", r.seq)
	r.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) AppendPromptID(_ context.Context, userID, promptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for _, id := range u.PromptIDs {
		if id == promptID {
			return nil
		}
	}
	u.PromptIDs = append(u.PromptIDs, promptID)
	return nil
}

func (r *memUserRepo) RemovePromptID(_ context.Context, userID, promptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removeErr != nil {
		return r.removeErr
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	kept := u.PromptIDs[:0]
	for _, id := range u.PromptIDs {
		if id != promptID {
			kept = append(kept, id)
		}
	}
	u.PromptIDs = kept
	return nil
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []ports.BackrefTask
}

func (e *recordingEnqueuer) Enqueue(task ports.BackrefTask) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
}

type stubTagCache struct {
	tags          []string
	warm          bool
	invalidations int
	getErr        error
}

func (c *stubTagCache) Get(_ context.Context) ([]string, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if !c.warm {
		return nil, nil
	}
	return c.tags, nil
}

func (c *stubTagCache) Set(_ context.Context, tags []string) error {
	c.tags = tags
	c.warm = true
	return nil
}

func (c *stubTagCache) Invalidate(_ context.Context) error {
	c.tags = nil
	c.warm = false
	c.invalidations++
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type catalogFixture struct {
	svc     *CatalogService
	prompts *memPromptRepo
	users   *memUserRepo
	queue   *recordingEnqueuer
	cache   *stubTagCache
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		prompts: newMemPromptRepo(),
		users:   newMemUserRepo(),
		queue:   &recordingEnqueuer{},
		cache:   &stubTagCache{},
	}
	f.svc = NewCatalogService(f.prompts, f.users, f.queue, f.cache, discardLogger)
	return f
}

func validCreateInput(authorID string) ports.CreatePromptInput {
	return ports.CreatePromptInput{
		AuthorID:    authorID,
		Title:       "Bug triage assistant",
		Content:     "You are a senior engineer. Triage the following bug report.",
		TargetModel: "Claude",
		Tags:        []string{"Engineering, Triage", "engineering"},
		IsPublic:    true,
	}
}

func strptr(s string) *string { return &s }

func boolptr(b bool) *bool { return &b }

// ---------------------------------------------------------------------------
// CreatePrompt tests
// ---------------------------------------------------------------------------

func TestCatalogService_Create_Success(t *testing.T) {
	f := newCatalogFixture()
	author := f.users.seed(&domain.User{Name: "Ana", Email: "ana@example.com"})

	created, err := f.svc.CreatePrompt(context.Background(), validCreateInput(author.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == "" {
		t.Error("expected an assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt must not be zero")
	}
	if created.UpdatedAt != nil {
		t.Error("UpdatedAt must be unset on a fresh prompt")
	}
	if created.Rating != 0 || created.RatingsCount != 0 {
		t.Errorf("new prompt must start unrated, got %v/%d", created.Rating, created.RatingsCount)
	}
	wantTags := []string{"engineering", "triage"}
	if len(created.Tags) != len(wantTags) || created.Tags[0] != "engineering" || created.Tags[1] != "triage" {
		t.Errorf("tags not normalized: got %v, want %v", created.Tags, wantTags)
	}

	stored, err := f.users.FindByID(context.Background(), author.ID)
	if err != nil {
		t.Fatalf("author lookup failed: %v", err)
	}
	if len(stored.PromptIDs) != 1 || stored.PromptIDs[0] != created.ID {
		t.Errorf("author prompt list not updated: %v", stored.PromptIDs)
	}
	if len(f.queue.tasks) != 0 {
		t.Errorf("no reconciliation expected on the happy path, got %d tasks", len(f.queue.tasks))
	}
}

func TestCatalogService_Create_Validation(t *testing.T) {
	f := newCatalogFixture()
	author := f.users.seed(&domain.User{Name: "Ana", Email: "ana@example.com"})

	cases := []struct {
		name   string
		mutate func(*ports.CreatePromptInput)
	}{
		{"missing author", func(in *ports.CreatePromptInput) { in.AuthorID = "" }},
		{"blank title", func(in *ports.CreatePromptInput) { in.Title = "   " }},
		{"missing content", func(in *ports.CreatePromptInput) { in.Content = "" }},
		{"unknown target model", func(in *ports.CreatePromptInput) { in.TargetModel = "GPT-9000" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput(author.ID)
			tc.mutate(&in)
			_, err := f.svc.CreatePrompt(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	if len(f.prompts.prompts) != 0 {
		t.Errorf("no prompt should be persisted on validation failure, found %d", len(f.prompts.prompts))
	}
}

func TestCatalogService_Create_BackrefFailureQueuesRepair(t *testing.T) {
	f := newCatalogFixture()
	author := f.users.seed(&domain.User{Name: "Ana", Email: "ana@example.com"})
	f.users.appendErr = errors.New("primary stepped down")

	created, err := f.svc.CreatePrompt(context.Background(), validCreateInput(author.ID))
	if err != nil {
		t.Fatalf("create must survive a back-reference failure, got %v", err)
	}

	if len(f.queue.tasks) != 1 {
		t.Fatalf("expected 1 reconciliation task, got %d", len(f.queue.tasks))
	}
	task := f.queue.tasks[0]
	if task.Op != ports.BackrefAttach {
		t.Errorf("expected attach op, got %q", task.Op)
	}
	if task.UserID != author.ID || task.PromptID != created.ID {
		t.Errorf("task targets wrong pair: %+v", task)
	}
	if task.ID == "" {
		t.Error("task must carry a correlation id")
	}
}

// ---------------------------------------------------------------------------
// GetPrompt tests
// ---------------------------------------------------------------------------

func TestCatalogService_Get_Visibility(t *testing.T) {
	f := newCatalogFixture()
	public := f.prompts.seed(&domain.Prompt{Title: "pub", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: "u001", CreatedAt: time.Now()})
	private := f.prompts.seed(&domain.Prompt{Title: "priv", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: false, AuthorID: "u001", CreatedAt: time.Now()})

	if _, err := f.svc.GetPrompt(context.Background(), public.ID, ""); err != nil {
		t.Errorf("public prompt must be visible anonymously: %v", err)
	}
	if _, err := f.svc.GetPrompt(context.Background(), private.ID, "u001"); err != nil {
		t.Errorf("private prompt must be visible to its author: %v", err)
	}
	if _, err := f.svc.GetPrompt(context.Background(), private.ID, "u002"); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("private prompt must read as not-found to others, got %v", err)
	}
	if _, err := f.svc.GetPrompt(context.Background(), private.ID, ""); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("private prompt must read as not-found anonymously, got %v", err)
	}
	if _, err := f.svc.GetPrompt(context.Background(), "missing", "u001"); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("expected not-found for unknown id, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdatePrompt tests
// ---------------------------------------------------------------------------

func TestCatalogService_Update_PartialPatch(t *testing.T) {
	f := newCatalogFixture()
	p := f.prompts.seed(&domain.Prompt{Title: "old title", Content: "old content", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: "u001", CreatedAt: time.Now()})

	updated, err := f.svc.UpdatePrompt(context.Background(), p.ID, "u001", ports.UpdatePromptInput{
		Title: strptr("  new title  "),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Title != "new title" {
		t.Errorf("title not trimmed and applied: %q", updated.Title)
	}
	if updated.Content != "old content" {
		t.Errorf("content must be untouched, got %q", updated.Content)
	}
	if updated.UpdatedAt == nil {
		t.Error("UpdatedAt must be stamped on update")
	}
}

func TestCatalogService_Update_NormalizesTags(t *testing.T) {
	f := newCatalogFixture()
	p := f.prompts.seed(&domain.Prompt{Title: "t", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: "u001", CreatedAt: time.Now()})

	tags := []string{"SQL, sql", " Data "}
	updated, err := f.svc.UpdatePrompt(context.Background(), p.ID, "u001", ports.UpdatePromptInput{Tags: &tags})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "sql" || updated.Tags[1] != "data" {
		t.Errorf("tags not normalized: %v", updated.Tags)
	}
}

func TestCatalogService_Update_NotAuthor(t *testing.T) {
	f := newCatalogFixture()
	p := f.prompts.seed(&domain.Prompt{Title: "t", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: "u001", CreatedAt: time.Now()})

	_, err := f.svc.UpdatePrompt(context.Background(), p.ID, "u002", ports.UpdatePromptInput{Title: strptr("hijacked")})
	if !errors.Is(err, domain.ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}

	stored, _ := f.prompts.FindByID(context.Background(), p.ID)
	if stored.Title != "t" {
		t.Errorf("prompt must be unchanged after rejected update, got title %q", stored.Title)
	}
}

func TestCatalogService_Update_Validation(t *testing.T) {
	f := newCatalogFixture()
	p := f.prompts.seed(&domain.Prompt{Title: "t", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: "u001", CreatedAt: time.Now()})

	if _, err := f.svc.UpdatePrompt(context.Background(), p.ID, "u001", ports.UpdatePromptInput{Title: strptr("  ")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank title: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.UpdatePrompt(context.Background(), p.ID, "u001", ports.UpdatePromptInput{Content: strptr("")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty content: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.UpdatePrompt(context.Background(), p.ID, "u001", ports.UpdatePromptInput{TargetModel: strptr("Ferret")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown model: expected ErrValidation, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// DeletePrompt tests
// ---------------------------------------------------------------------------

func TestCatalogService_Delete_RemovesPromptAndBackref(t *testing.T) {
	f := newCatalogFixture()
	author := f.users.seed(&domain.User{Name: "Ana", Email: "ana@example.com"})

	created, err := f.svc.CreatePrompt(context.Background(), validCreateInput(author.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.svc.DeletePrompt(context.Background(), created.ID, author.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := f.prompts.FindByID(context.Background(), created.ID); !errors.Is(err, domain.ErrPromptNotFound) {
		t.Errorf("prompt must be gone, got %v", err)
	}
	stored, _ := f.users.FindByID(context.Background(), author.ID)
	if len(stored.PromptIDs) != 0 {
		t.Errorf("author prompt list must be empty, got %v", stored.PromptIDs)
	}

	result, err := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("deleted prompt must not appear in listings, total=%d", result.Total)
	}
}

func TestCatalogService_Delete_NotAuthor(t *testing.T) {
	f := newCatalogFixture()
	p := f.prompts.seed(&domain.Prompt{Title: "t", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: "u001", CreatedAt: time.Now()})

	if err := f.svc.DeletePrompt(context.Background(), p.ID, "u002"); !errors.Is(err, domain.ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if _, err := f.prompts.FindByID(context.Background(), p.ID); err != nil {
		t.Errorf("prompt must survive a rejected delete, got %v", err)
	}
}

func TestCatalogService_Delete_BackrefFailureQueuesRepair(t *testing.T) {
	f := newCatalogFixture()
	author := f.users.seed(&domain.User{Name: "Ana", Email: "ana@example.com"})
	p := f.prompts.seed(&domain.Prompt{Title: "t", Content: "c", TargetModel: domain.ModelChatGPT, IsPublic: true, AuthorID: author.ID, CreatedAt: time.Now()})
	f.users.removeErr = errors.New("primary stepped down")

	if err := f.svc.DeletePrompt(context.Background(), p.ID, author.ID); err != nil {
		t.Fatalf("delete must survive a back-reference failure, got %v", err)
	}

	if len(f.queue.tasks) != 1 {
		t.Fatalf("expected 1 reconciliation task, got %d", len(f.queue.tasks))
	}
	if f.queue.tasks[0].Op != ports.BackrefDetach {
		t.Errorf("expected detach op, got %q", f.queue.tasks[0].Op)
	}
}

// ---------------------------------------------------------------------------
// ListPrompts tests
// ---------------------------------------------------------------------------

func seedCatalog(f *catalogFixture) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.prompts.seed(&domain.Prompt{Title: "SQL optimizer", Content: "tune this query", TargetModel: domain.ModelChatGPT, Tags: []string{"sql", "code"}, IsPublic: true, AuthorID: "u001", Rating: 4.5, RatingsCount: 2, Views: 10, CreatedAt: base})
	f.prompts.seed(&domain.Prompt{Title: "Haiku writer", Content: "write a haiku", TargetModel: domain.ModelClaude, Tags: []string{"writing"}, IsPublic: true, AuthorID: "u002", Rating: 3, RatingsCount: 1, Views: 50, CreatedAt: base.Add(time.Hour)})
	f.prompts.seed(&domain.Prompt{Title: "Secret draft", Content: "unfinished", TargetModel: domain.ModelClaude, Tags: []string{"writing"}, IsPublic: false, AuthorID: "u001", CreatedAt: base.Add(2 * time.Hour)})
	f.prompts.seed(&domain.Prompt{Title: "Logo concept", Content: "a fox made of circuits", TargetModel: domain.ModelMidjourney, Tags: []string{"art"}, IsPublic: true, AuthorID: "u003", Rating: 5, RatingsCount: 4, Views: 120, CreatedAt: base.Add(3 * time.Hour)})
}

func TestCatalogService_List_AnonymousSeesPublicOnly(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	result, err := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected 3 public prompts, got %d", result.Total)
	}
	for _, p := range result.Items {
		if !p.IsPublic {
			t.Errorf("private prompt %q leaked to anonymous listing", p.Title)
		}
	}
	// newest first by default
	if result.Items[0].Title != "Logo concept" {
		t.Errorf("expected newest first, got %q", result.Items[0].Title)
	}
}

func TestCatalogService_List_ViewerSeesOwnPrivate(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	result, err := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{ViewerID: "u001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 4 {
		t.Errorf("expected public plus own private = 4, got %d", result.Total)
	}
}

func TestCatalogService_List_PrivateRequestByNonOwnerIsEmpty(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	// private prompts of u001 requested by u002
	result, err := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{
		IsPublic: boolptr(false),
		AuthorID: "u001",
		ViewerID: "u002",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 || len(result.Items) != 0 {
		t.Errorf("expected an empty page, got total=%d items=%d", result.Total, len(result.Items))
	}

	// anonymous private request
	result, err = f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{IsPublic: boolptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("anonymous private request must be empty, got %d", result.Total)
	}
}

func TestCatalogService_List_PrivateRequestByOwner(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	result, err := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{
		IsPublic: boolptr(false),
		ViewerID: "u001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || result.Items[0].Title != "Secret draft" {
		t.Errorf("expected only u001's private draft, got total=%d", result.Total)
	}
}

func TestCatalogService_List_Filters(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	byModel, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{TargetModel: "Claude"})
	if byModel.Total != 1 || byModel.Items[0].Title != "Haiku writer" {
		t.Errorf("model filter wrong: total=%d", byModel.Total)
	}

	all, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{TargetModel: ports.TargetModelAll})
	if all.Total != 3 {
		t.Errorf("\"All\" must not filter, got %d", all.Total)
	}

	byTag, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Tags: []string{"ART, sql"}})
	if byTag.Total != 2 {
		t.Errorf("tag filter must match any tag case-insensitively, got %d", byTag.Total)
	}

	bySearch, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Search: "FOX"})
	if bySearch.Total != 1 || bySearch.Items[0].Title != "Logo concept" {
		t.Errorf("search must be case-insensitive over content, got %d", bySearch.Total)
	}

	byAuthor, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{AuthorID: "u002"})
	if byAuthor.Total != 1 {
		t.Errorf("author filter wrong: %d", byAuthor.Total)
	}
}

func TestCatalogService_List_Sorts(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	rated, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Sort: ports.SortTopRated})
	if rated.Items[0].Title != "Logo concept" || rated.Items[1].Title != "SQL optimizer" {
		t.Errorf("rating sort wrong: %q, %q", rated.Items[0].Title, rated.Items[1].Title)
	}

	viewed, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Sort: ports.SortMostViewed})
	if viewed.Items[0].Title != "Logo concept" || viewed.Items[1].Title != "Haiku writer" {
		t.Errorf("views sort wrong: %q, %q", viewed.Items[0].Title, viewed.Items[1].Title)
	}

	titled, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Sort: ports.SortTitleAsc})
	if titled.Items[0].Title != "Haiku writer" {
		t.Errorf("title sort wrong: %q", titled.Items[0].Title)
	}

	oldest, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Sort: ports.SortOldest})
	if oldest.Items[0].Title != "SQL optimizer" {
		t.Errorf("oldest sort wrong: %q", oldest.Items[0].Title)
	}

	// unknown sort falls back to newest
	fallback, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Sort: "bogus"})
	if fallback.Items[0].Title != "Logo concept" {
		t.Errorf("unknown sort must default to newest, got %q", fallback.Items[0].Title)
	}
}

func TestCatalogService_List_Pagination(t *testing.T) {
	f := newCatalogFixture()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		f.prompts.seed(&domain.Prompt{
			Title:       fmt.Sprintf("prompt %02d", i),
			Content:     "c",
			TargetModel: domain.ModelChatGPT,
			IsPublic:    true,
			AuthorID:    "u001",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	page2, err := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page2.Items) != 10 {
		t.Errorf("expected 10 items on page 2, got %d", len(page2.Items))
	}
	if page2.Total != 25 || page2.TotalPages != 3 {
		t.Errorf("expected total=25 pages=3, got total=%d pages=%d", page2.Total, page2.TotalPages)
	}
	// newest first: page 2 starts at the 11th newest, prompt 14
	if page2.Items[0].Title != "prompt 14" {
		t.Errorf("page 2 starts at wrong item: %q", page2.Items[0].Title)
	}

	page3, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Page: 3, Limit: 10})
	if len(page3.Items) != 5 {
		t.Errorf("expected 5 items on the last page, got %d", len(page3.Items))
	}

	beyond, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Page: 9, Limit: 10})
	if len(beyond.Items) != 0 || beyond.Total != 25 {
		t.Errorf("page past the end must be empty with the real total, got %d/%d", len(beyond.Items), beyond.Total)
	}

	// concatenated pages cover every item exactly once
	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		result, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Page: page, Limit: 10})
		for _, p := range result.Items {
			if seen[p.ID] {
				t.Errorf("prompt %s appeared on two pages", p.ID)
			}
			seen[p.ID] = true
		}
	}
	if len(seen) != 25 {
		t.Errorf("pages must cover all 25 prompts, covered %d", len(seen))
	}
}

func TestCatalogService_List_DefaultsAndCaps(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	result, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Page: -3, Limit: 0})
	if result.Page != 1 || result.Limit != defaultPageSize {
		t.Errorf("expected page=1 limit=%d, got page=%d limit=%d", defaultPageSize, result.Page, result.Limit)
	}

	capped, _ := f.svc.ListPrompts(context.Background(), ports.ListPromptsInput{Limit: 5000})
	if capped.Limit != maxPageSize {
		t.Errorf("limit must be capped at %d, got %d", maxPageSize, capped.Limit)
	}
}

// ---------------------------------------------------------------------------
// ListTags tests
// ---------------------------------------------------------------------------

func TestCatalogService_ListTags_CacheMissThenHit(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)

	tags, err := f.svc.ListTags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// public prompts only; "writing" from the private draft still appears via
	// the public haiku prompt
	want := []string{"art", "code", "sql", "writing"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}

	if f.prompts.distinctCalls != 1 {
		t.Fatalf("expected one store read, got %d", f.prompts.distinctCalls)
	}
	if _, err := f.svc.ListTags(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.prompts.distinctCalls != 1 {
		t.Errorf("second read must be served from cache, store reads=%d", f.prompts.distinctCalls)
	}
}

func TestCatalogService_ListTags_CacheFailureFallsBack(t *testing.T) {
	f := newCatalogFixture()
	seedCatalog(f)
	f.cache.getErr = errors.New("redis down")

	tags, err := f.svc.ListTags(context.Background())
	if err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if len(tags) == 0 {
		t.Error("expected tags from the store fallback")
	}
}

func TestCatalogService_MutationsInvalidateTagCache(t *testing.T) {
	f := newCatalogFixture()
	author := f.users.seed(&domain.User{Name: "Ana", Email: "ana@example.com"})

	created, err := f.svc.CreatePrompt(context.Background(), validCreateInput(author.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if f.cache.invalidations != 1 {
		t.Errorf("create must invalidate the tag cache, got %d", f.cache.invalidations)
	}

	if _, err := f.svc.UpdatePrompt(context.Background(), created.ID, author.ID, ports.UpdatePromptInput{Title: strptr("renamed")}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if f.cache.invalidations != 2 {
		t.Errorf("update must invalidate the tag cache, got %d", f.cache.invalidations)
	}

	if err := f.svc.DeletePrompt(context.Background(), created.ID, author.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if f.cache.invalidations != 3 {
		t.Errorf("delete must invalidate the tag cache, got %d", f.cache.invalidations)
	}
}
