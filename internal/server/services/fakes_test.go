package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/models"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/attachments"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/codes"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/listings"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL:         "http://coisando.test/",
		SecretKey:       "k",
		SessionValidity: time.Hour,
		PresignValidity: 2 * time.Minute,
		ScratchDir:      t.TempDir(),
		MaxUploadBytes:  1024,
	}
}

// --- in-memory database ---

type memDB struct {
	mu          sync.Mutex
	seq         int
	clock       time.Time
	users       map[string]*models.User
	codes       map[string]*models.ConfirmationCode
	listings    []*models.Listing
	attachments map[string]*models.Attachment

	createAttachmentErr error
	failAll             error
}

func newMemDB() *memDB {
	return &memDB{
		clock:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		users:       map[string]*models.User{},
		codes:       map[string]*models.ConfirmationCode{},
		attachments: map[string]*models.Attachment{},
	}
}

type memState struct {
	users       map[string]*models.User
	codes       map[string]*models.ConfirmationCode
	listings    []*models.Listing
	attachments map[string]*models.Attachment
}

func (m *memDB) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := memState{
		users:       make(map[string]*models.User, len(m.users)),
		codes:       make(map[string]*models.ConfirmationCode, len(m.codes)),
		attachments: make(map[string]*models.Attachment, len(m.attachments)),
	}
	for k, v := range m.users {
		cp := *v
		st.users[k] = &cp
	}
	for k, v := range m.codes {
		cp := *v
		st.codes[k] = &cp
	}
	for _, v := range m.listings {
		cp := *v
		st.listings = append(st.listings, &cp)
	}
	for k, v := range m.attachments {
		cp := *v
		st.attachments[k] = &cp
	}
	return st
}

func (m *memDB) restore(st memState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.codes, m.listings, m.attachments = st.users, st.codes, st.listings, st.attachments
}

// transactional makes run discard memDB writes whenever it reports an
// error, the way a rolled back transaction would.
func (m *memDB) transactional(run txRunner) txRunner {
	return func(ctx context.Context, fn func(context.Context, dbx.DBTX) error) error {
		st := m.snapshot()
		err := run(ctx, fn)
		if err != nil {
			m.restore(st)
		}
		return err
	}
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// addUser seeds a user directly.
func (m *memDB) addUser(nickname, email, hash string, status models.Status) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{
		ID: m.nextID("u"), Nickname: nickname, Email: email, PasswordHash: hash,
		AvatarSeed: "seed-" + nickname, Status: status, CreatedAt: m.tick(),
	}
	m.users[u.ID] = u
	return u
}

func (m *memDB) user(id string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (m *memDB) userByNickname(nickname string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Nickname == nickname {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (m *memDB) codeFor(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c, cc := range m.codes {
		if cc.UserID == userID {
			return c
		}
	}
	return ""
}

type memUsers struct{ m *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAll != nil {
		return nil, r.m.failAll
	}
	for _, x := range r.m.users {
		if x.Nickname == u.Nickname {
			return nil, common.ErrNicknameInUse
		}
		if x.Email == u.Email {
			return nil, common.ErrEmailInUse
		}
	}
	cp := *u
	cp.ID = r.m.nextID("u")
	cp.CreatedAt = r.m.tick()
	r.m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u := r.m.user(id); u != nil {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAll != nil {
		return nil, r.m.failAll
	}
	for _, u := range r.m.users {
		if u.Nickname == login || u.Email == strings.ToLower(login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) NicknameExists(_ context.Context, nickname string) (bool, error) {
	if r.m.failAll != nil {
		return false, r.m.failAll
	}
	return r.m.userByNickname(nickname) != nil, nil
}

func (r memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) update(id string, fn func(u *models.User)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAll != nil {
		return r.m.failAll
	}
	u, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (r memUsers) Confirm(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok || u.Status != models.StatusPending {
		return common.ErrorNotFound
	}
	u.Status = models.StatusConfirmed
	return nil
}

func (r memUsers) UpdateStatus(_ context.Context, id string, s models.Status) error {
	return r.update(id, func(u *models.User) { u.Status = s })
}

func (r memUsers) UpdateNickname(_ context.Context, id, nickname string) error {
	return r.update(id, func(u *models.User) { u.Nickname = nickname })
}

func (r memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r memUsers) UpdateAvatarSeed(_ context.Context, id, seed string) error {
	return r.update(id, func(u *models.User) { u.AvatarSeed = seed })
}

// Delete cascades like the schema does.
func (r memUsers) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.users, id)
	for c, cc := range r.m.codes {
		if cc.UserID == id {
			delete(r.m.codes, c)
		}
	}
	kept := r.m.listings[:0]
	for _, l := range r.m.listings {
		if l.CreatorID != id {
			kept = append(kept, l)
			continue
		}
		for aid, a := range r.m.attachments {
			if a.ListingID == l.ID {
				delete(r.m.attachments, aid)
			}
		}
	}
	r.m.listings = kept
	return nil
}

type memCodes struct{ m *memDB }

func (r memCodes) Create(_ context.Context, c *models.ConfirmationCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c.CreatedAt = r.m.tick()
	cp := *c
	r.m.codes[c.Code] = &cp
	return nil
}

func (r memCodes) Get(_ context.Context, code string) (*models.ConfirmationCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.codes[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCodes) Delete(_ context.Context, code string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.codes[code]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.codes, code)
	return nil
}

type memListings struct{ m *memDB }

func (r memListings) Create(_ context.Context, l *models.Listing) (*models.Listing, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAll != nil {
		return nil, r.m.failAll
	}
	cp := *l
	cp.ID = r.m.nextID("l")
	cp.CreatedAt = r.m.tick()
	r.m.listings = append(r.m.listings, &cp)
	out := cp
	return &out, nil
}

func (r memListings) ListRecent(_ context.Context, offset, limit int) ([]listings.Summary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAll != nil {
		return nil, r.m.failAll
	}
	var out []listings.Summary
	for _, l := range r.m.listings {
		u := r.m.users[l.CreatorID]
		if u == nil || u.Status != models.StatusConfirmed {
			continue
		}
		out = append(out, listings.Summary{Listing: *l, CreatorNickname: u.Nickname, CreatorAvatarSeed: u.AvatarSeed})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []listings.Summary{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDB) listingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listings)
}

type memAttachments struct{ m *memDB }

func (r memAttachments) Create(_ context.Context, a *models.Attachment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createAttachmentErr != nil {
		return r.m.createAttachmentErr
	}
	a.CreatedAt = r.m.tick()
	cp := *a
	r.m.attachments[a.ID] = &cp
	return nil
}

func (r memAttachments) GetAccess(_ context.Context, id string) (*models.AttachmentAccess, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAll != nil {
		return nil, r.m.failAll
	}
	a, ok := r.m.attachments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, l := range r.m.listings {
		if l.ID == a.ListingID {
			u := r.m.users[l.CreatorID]
			return &models.AttachmentAccess{AttachmentID: id, CreatorID: l.CreatorID, OwnerStatus: u.Status}, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAttachments) ListIDsByListing(_ context.Context, listingID string) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ids := []string{}
	for id, a := range r.m.attachments {
		if a.ListingID == listingID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r memAttachments) ListKeysByCreator(_ context.Context, creatorID string) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var keys []string
	for _, l := range r.m.listings {
		if l.CreatorID != creatorID {
			continue
		}
		for id, a := range r.m.attachments {
			if a.ListingID == l.ID {
				keys = append(keys, models.StorageKey(creatorID, id))
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// fakeRepoManager vends views over one memDB regardless of the DBTX.
type fakeRepoManager struct{ m *memDB }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{f.m} }
func (f *fakeRepoManager) Codes(dbx.DBTX) codes.Repository              { return memCodes{f.m} }
func (f *fakeRepoManager) Listings(dbx.DBTX) listings.Repository        { return memListings{f.m} }
func (f *fakeRepoManager) Attachments(dbx.DBTX) attachments.Repository  { return memAttachments{f.m} }

// --- collaborators ---

type sentMail struct{ to, nickname, link string }

type fakeNotifier struct {
	sent []sentMail
	err  error
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, to, nickname, link string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to, nickname, link})
	return nil
}

type revokedUser struct {
	userID string
	cutoff time.Time
	maxAge time.Duration
}

type fakeRevoker struct {
	tokens map[string]time.Time
	users  []revokedUser
	err    error
}

func (r *fakeRevoker) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	if r.err != nil {
		return r.err
	}
	if r.tokens == nil {
		r.tokens = map[string]time.Time{}
	}
	r.tokens[tokenID] = expiresAt
	return nil
}

func (r *fakeRevoker) RevokeUserBefore(_ context.Context, userID string, cutoff time.Time, maxAge time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.users = append(r.users, revokedUser{userID, cutoff, maxAge})
	return nil
}

type storedObject struct {
	body        []byte
	contentType string
}

type fakeObjects struct {
	mu         sync.Mutex
	objects    map[string]storedObject
	deleted    []string
	putErr     func(key string) error
	deleteErr  error
	presignErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string]storedObject{}}
}

func (o *fakeObjects) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	if o.putErr != nil {
		if err := o.putErr(key); err != nil {
			return err
		}
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return errors.New("size mismatch")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = storedObject{body: b, contentType: contentType}
	return nil
}

func (o *fakeObjects) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if o.presignErr != nil {
		return "", o.presignErr
	}
	return fmt.Sprintf("https://s3.test/bucket/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

func (o *fakeObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, key)
	if o.deleteErr != nil {
		return o.deleteErr
	}
	delete(o.objects, key)
	return nil
}

func (o *fakeObjects) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// fileOf builds an upload whose content is body.
func fileOf(name string, body []byte) FileUpload {
	return FileUpload{Filename: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}}
}
