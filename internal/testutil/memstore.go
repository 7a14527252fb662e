package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/coursehub/internal/app/workflow"
	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory implementation of every workflow storage port.
// It also implements workflow.Transactor: Run snapshots the data and
// restores it when fn fails, so tests can observe rollback.
type MemStore struct {
	mu sync.Mutex

	sessions       map[primitive.ObjectID]models.Session
	seances        map[primitive.ObjectID]models.Seance
	groups         map[primitive.ObjectID]models.Group
	participations map[primitive.ObjectID]models.Participation
	lines          map[primitive.ObjectID]models.SubscriptionLine
	stakeholders   map[primitive.ObjectID]models.Stakeholder
	requests       map[primitive.ObjectID]models.StakeholderRequest
	offers         map[primitive.ObjectID]models.Offer
	suppliers      map[primitive.ObjectID]models.Supplier
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions:       map[primitive.ObjectID]models.Session{},
		seances:        map[primitive.ObjectID]models.Seance{},
		groups:         map[primitive.ObjectID]models.Group{},
		participations: map[primitive.ObjectID]models.Participation{},
		lines:          map[primitive.ObjectID]models.SubscriptionLine{},
		stakeholders:   map[primitive.ObjectID]models.Stakeholder{},
		requests:       map[primitive.ObjectID]models.StakeholderRequest{},
		offers:         map[primitive.ObjectID]models.Offer{},
		suppliers:      map[primitive.ObjectID]models.Supplier{},
	}
}

// Stores returns the port adapters backed by m.
func (m *MemStore) Stores() workflow.Stores {
	return workflow.Stores{
		Sessions:       memSessions{m},
		Seances:        memSeances{m},
		Groups:         memGroups{m},
		Participations: memParticipations{m},
		Lines:          memLines{m},
		Stakeholders:   memStakeholders{m},
		Requests:       memRequests{m},
		Offers:         memOffers{m},
		Suppliers:      memSuppliers{m},
	}
}

// Run implements workflow.Transactor.
func (m *MemStore) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	snap := m.cloneLocked()
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.restoreLocked(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemStore) cloneLocked() *MemStore {
	return &MemStore{
		sessions:       cloneMap(m.sessions),
		seances:        cloneMap(m.seances),
		groups:         cloneMap(m.groups),
		participations: cloneMap(m.participations),
		lines:          cloneMap(m.lines),
		stakeholders:   cloneMap(m.stakeholders),
		requests:       cloneMap(m.requests),
		offers:         cloneMap(m.offers),
		suppliers:      cloneMap(m.suppliers),
	}
}

func (m *MemStore) restoreLocked(s *MemStore) {
	m.sessions = s.sessions
	m.seances = s.seances
	m.groups = s.groups
	m.participations = s.participations
	m.lines = s.lines
	m.stakeholders = s.stakeholders
	m.requests = s.requests
	m.offers = s.offers
	m.suppliers = s.suppliers
}

// cloneMap copies the map. Values are structs whose slices are never
// mutated in place by the adapters, so a shallow copy is enough.
func cloneMap[V any](in map[primitive.ObjectID]V) map[primitive.ObjectID]V {
	out := make(map[primitive.ObjectID]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Seeding and inspection helpers. Put* overwrite; getters return the zero
// value when the id is unknown.

func (m *MemStore) PutSession(s models.Session) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.sessions[s.ID] = s
	return s
}

func (m *MemStore) PutSeance(s models.Seance) models.Seance {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.seances[s.ID] = s
	return s
}

func (m *MemStore) PutGroup(g models.Group) models.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	g.NameCI = text.Fold(g.Name)
	m.groups[g.ID] = g
	return g
}

func (m *MemStore) PutParticipation(p models.Participation) models.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.participations[p.ID] = p
	return p
}

func (m *MemStore) PutLine(l models.SubscriptionLine) models.SubscriptionLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	m.lines[l.ID] = l
	return l
}

func (m *MemStore) PutStakeholder(s models.Stakeholder) models.Stakeholder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.stakeholders[s.ID] = s
	return s
}

func (m *MemStore) PutRequest(r models.StakeholderRequest) models.StakeholderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	m.requests[r.ID] = r
	return r
}

func (m *MemStore) PutOffer(o models.Offer) models.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	m.offers[o.ID] = o
	return o
}

func (m *MemStore) PutSupplier(s models.Supplier) models.Supplier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.suppliers[s.ID] = s
	return s
}

func (m *MemStore) Session(id primitive.ObjectID) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *MemStore) Seance(id primitive.ObjectID) models.Seance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seances[id]
}

func (m *MemStore) Line(id primitive.ObjectID) models.SubscriptionLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines[id]
}

func (m *MemStore) Stakeholder(id primitive.ObjectID) models.Stakeholder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stakeholders[id]
}

func (m *MemStore) Request(id primitive.ObjectID) models.StakeholderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

func (m *MemStore) Participation(id primitive.ObjectID) models.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.participations[id]
}

// ParticipationsOf returns the participations of a seance ordered by id.
func (m *MemStore) ParticipationsOf(seanceID primitive.ObjectID) []models.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Participation
	for _, p := range m.participations {
		if p.SeanceID == seanceID {
			out = append(out, p)
		}
	}
	sortByID(out, func(p models.Participation) primitive.ObjectID { return p.ID })
	return out
}

// GroupsOf returns the groups of a session ordered by id.
func (m *MemStore) GroupsOf(sessionID primitive.ObjectID) []models.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupsOfLocked(sessionID)
}

func (m *MemStore) groupsOfLocked(sessionID primitive.ObjectID) []models.Group {
	out := []models.Group{}
	for _, g := range m.groups {
		if g.SessionID == sessionID {
			out = append(out, g)
		}
	}
	sortByID(out, func(g models.Group) primitive.ObjectID { return g.ID })
	return out
}

func sortByID[T any](xs []T, id func(T) primitive.ObjectID) {
	sort.Slice(xs, func(i, j int) bool { return id(xs[i]).Hex() < id(xs[j]).Hex() })
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func notFound(entity string, id primitive.ObjectID) error {
	return errs.NotFound(entity, id.Hex(), nil)
}

// ---- sessions ----

type memSessions struct{ m *MemStore }

func (a memSessions) Get(_ context.Context, id primitive.ObjectID) (models.Session, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	s, ok := a.m.sessions[id]
	if !ok {
		return models.Session{}, notFound("session", id)
	}
	return s, nil
}

func (a memSessions) ByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Session, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	out := []models.Session{}
	for id := range idSet(ids) {
		if s, ok := a.m.sessions[id]; ok {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

func (a memSessions) BySeance(_ context.Context, seanceID primitive.ObjectID) ([]models.Session, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	out := []models.Session{}
	for _, s := range a.m.sessions {
		if s.HasSeance(seanceID) {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

func sortSessions(xs []models.Session) {
	sort.Slice(xs, func(i, j int) bool {
		if !xs[i].Date.Equal(xs[j].Date) {
			return xs[i].Date.Before(xs[j].Date)
		}
		return xs[i].ID.Hex() < xs[j].ID.Hex()
	})
}

func (a memSessions) Create(_ context.Context, s models.Session) (models.Session, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if _, ok := a.m.sessions[s.ID]; ok {
		return models.Session{}, errs.Invariant("session %s already exists", s.ID.Hex())
	}
	a.m.sessions[s.ID] = s
	return s, nil
}

func (a memSessions) update(id primitive.ObjectID, fn func(*models.Session)) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	s, ok := a.m.sessions[id]
	if !ok {
		return notFound("session", id)
	}
	fn(&s)
	a.m.sessions[id] = s
	return nil
}

func (a memSessions) SetState(_ context.Context, id primitive.ObjectID, state models.SessionState) error {
	return a.update(id, func(s *models.Session) { s.State = state })
}

func (a memSessions) SetLimits(_ context.Context, id primitive.ObjectID, minLimit, maxLimit int) error {
	return a.update(id, func(s *models.Session) { s.MinLimit, s.MaxLimit = minLimit, maxLimit })
}

func (a memSessions) SetSeances(_ context.Context, id primitive.ObjectID, seanceIDs []primitive.ObjectID) error {
	ids := append([]primitive.ObjectID(nil), seanceIDs...)
	return a.update(id, func(s *models.Session) { s.SeanceIDs = ids })
}

func (a memSessions) SetDate(_ context.Context, id primitive.ObjectID, date time.Time) error {
	return a.update(id, func(s *models.Session) { s.Date = date })
}

func (a memSessions) Delete(_ context.Context, id primitive.ObjectID) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if _, ok := a.m.sessions[id]; !ok {
		return notFound("session", id)
	}
	delete(a.m.sessions, id)
	return nil
}

// ---- seances ----

type memSeances struct{ m *MemStore }

func (a memSeances) Get(_ context.Context, id primitive.ObjectID) (models.Seance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	s, ok := a.m.seances[id]
	if !ok {
		return models.Seance{}, notFound("seance", id)
	}
	return s, nil
}

func (a memSeances) ByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Seance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	out := []models.Seance{}
	for id := range idSet(ids) {
		if s, ok := a.m.seances[id]; ok {
			out = append(out, s)
		}
	}
	sortSeances(out)
	return out, nil
}

func sortSeances(xs []models.Seance) {
	sort.Slice(xs, func(i, j int) bool {
		if !xs[i].Date.Equal(xs[j].Date) {
			return xs[i].Date.Before(xs[j].Date)
		}
		return xs[i].ID.Hex() < xs[j].ID.Hex()
	})
}

func (a memSeances) Create(_ context.Context, s models.Seance) (models.Seance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if _, ok := a.m.seances[s.ID]; ok {
		return models.Seance{}, errs.Invariant("seance %s already exists", s.ID.Hex())
	}
	a.m.seances[s.ID] = s
	return s, nil
}

func (a memSeances) update(id primitive.ObjectID, fn func(*models.Seance)) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	s, ok := a.m.seances[id]
	if !ok {
		return notFound("seance", id)
	}
	fn(&s)
	a.m.seances[id] = s
	return nil
}

func (a memSeances) SetState(_ context.Context, id primitive.ObjectID, state models.SeanceState) error {
	return a.update(id, func(s *models.Seance) { s.State = state })
}

func (a memSeances) SetLimits(_ context.Context, id primitive.ObjectID, minLimit, maxLimit int) error {
	return a.update(id, func(s *models.Seance) { s.MinLimit, s.MaxLimit = minLimit, maxLimit })
}

func (a memSeances) SetDate(_ context.Context, id primitive.ObjectID, date time.Time) error {
	return a.update(id, func(s *models.Seance) { s.Date = date })
}

func (a memSeances) SetGroup(_ context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error {
	var g *primitive.ObjectID
	if groupID != nil {
		v := *groupID
		g = &v
	}
	return a.update(id, func(s *models.Seance) { s.GroupID = g })
}

func (a memSeances) SetProcurement(_ context.Context, id, purchaseLineID primitive.ObjectID, procurementID string) error {
	var found bool
	err := a.update(id, func(s *models.Seance) {
		lines := append([]models.PurchaseLine(nil), s.PurchaseLines...)
		for i := range lines {
			if lines[i].ID == purchaseLineID {
				lines[i].ProcurementID = procurementID
				found = true
			}
		}
		s.PurchaseLines = lines
	})
	if err != nil {
		return err
	}
	if !found {
		return notFound("purchase line", purchaseLineID)
	}
	return nil
}

func (a memSeances) OpenForCourses(_ context.Context, courseIDs []primitive.ObjectID, from time.Time) ([]models.Seance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	courses := idSet(courseIDs)
	out := []models.Seance{}
	for _, s := range a.m.seances {
		if s.State != models.SeanceOpened || s.Duplicated || s.CourseID == nil || s.Date.Before(from) {
			continue
		}
		if _, ok := courses[*s.CourseID]; ok {
			out = append(out, s)
		}
	}
	sortSeances(out)
	return out, nil
}

func (a memSeances) Delete(_ context.Context, id primitive.ObjectID) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if _, ok := a.m.seances[id]; !ok {
		return notFound("seance", id)
	}
	delete(a.m.seances, id)
	return nil
}

// ---- groups ----

type memGroups struct{ m *MemStore }

func (a memGroups) Create(_ context.Context, g models.Group) (models.Group, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	g.NameCI = text.Fold(g.Name)
	for _, other := range a.m.groups {
		if other.SessionID == g.SessionID && other.NameCI == g.NameCI {
			return models.Group{}, errs.Invariant("a group with this name already exists in the session")
		}
	}
	a.m.groups[g.ID] = g
	return g, nil
}

func (a memGroups) Get(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	g, ok := a.m.groups[id]
	if !ok {
		return models.Group{}, notFound("group", id)
	}
	return g, nil
}

func (a memGroups) BySession(_ context.Context, sessionID primitive.ObjectID) ([]models.Group, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	return a.m.groupsOfLocked(sessionID), nil
}

func (a memGroups) DeleteBySession(_ context.Context, sessionID primitive.ObjectID) (int64, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var n int64
	for id, g := range a.m.groups {
		if g.SessionID == sessionID {
			delete(a.m.groups, id)
			n++
		}
	}
	return n, nil
}

// ---- participations ----

type memParticipations struct{ m *MemStore }

func (a memParticipations) Create(_ context.Context, p models.Participation) (models.Participation, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	for _, other := range a.m.participations {
		if other.SeanceID == p.SeanceID && other.SubscriptionLineID == p.SubscriptionLineID {
			return models.Participation{}, errs.Invariant("the subscription line already participates in this seance")
		}
	}
	a.m.participations[p.ID] = p
	return p, nil
}

func (a memParticipations) filter(keep func(models.Participation) bool) []models.Participation {
	out := []models.Participation{}
	for _, p := range a.m.participations {
		if keep(p) {
			out = append(out, p)
		}
	}
	sortByID(out, func(p models.Participation) primitive.ObjectID { return p.ID })
	return out
}

func (a memParticipations) ByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Participation, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	set := idSet(ids)
	return a.filter(func(p models.Participation) bool { _, ok := set[p.ID]; return ok }), nil
}

func (a memParticipations) BySeances(_ context.Context, seanceIDs []primitive.ObjectID) ([]models.Participation, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	set := idSet(seanceIDs)
	return a.filter(func(p models.Participation) bool { _, ok := set[p.SeanceID]; return ok }), nil
}

func (a memParticipations) ByLine(_ context.Context, lineID primitive.ObjectID) ([]models.Participation, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	return a.filter(func(p models.Participation) bool { return p.SubscriptionLineID == lineID }), nil
}

func (a memParticipations) SetPurchaseRefs(_ context.Context, id primitive.ObjectID, refs []string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	p, ok := a.m.participations[id]
	if !ok {
		return notFound("participation", id)
	}
	p.PurchaseLineRefs = append([]string{}, refs...)
	a.m.participations[id] = p
	return nil
}

func (a memParticipations) SetPurchaseState(_ context.Context, ids []primitive.ObjectID, state string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	for _, id := range ids {
		if p, ok := a.m.participations[id]; ok {
			p.PurchaseState = state
			a.m.participations[id] = p
		}
	}
	return nil
}

func (a memParticipations) deleteWhere(match func(models.Participation) bool) int64 {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var n int64
	for id, p := range a.m.participations {
		if match(p) {
			delete(a.m.participations, id)
			n++
		}
	}
	return n
}

func (a memParticipations) DeleteBySeance(_ context.Context, seanceID primitive.ObjectID) (int64, error) {
	return a.deleteWhere(func(p models.Participation) bool { return p.SeanceID == seanceID }), nil
}

func (a memParticipations) DeleteByLine(_ context.Context, lineID primitive.ObjectID) (int64, error) {
	return a.deleteWhere(func(p models.Participation) bool { return p.SubscriptionLineID == lineID }), nil
}

// ---- subscription lines ----

type memLines struct{ m *MemStore }

func (a memLines) Get(_ context.Context, id primitive.ObjectID) (models.SubscriptionLine, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	l, ok := a.m.lines[id]
	if !ok {
		return models.SubscriptionLine{}, notFound("subscription line", id)
	}
	return l, nil
}

func (a memLines) filter(keep func(models.SubscriptionLine) bool) []models.SubscriptionLine {
	out := []models.SubscriptionLine{}
	for _, l := range a.m.lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	sortByID(out, func(l models.SubscriptionLine) primitive.ObjectID { return l.ID })
	return out
}

func (a memLines) ByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.SubscriptionLine, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	set := idSet(ids)
	return a.filter(func(l models.SubscriptionLine) bool { _, ok := set[l.ID]; return ok }), nil
}

func (a memLines) BySessions(_ context.Context, sessionIDs []primitive.ObjectID) ([]models.SubscriptionLine, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	set := idSet(sessionIDs)
	return a.filter(func(l models.SubscriptionLine) bool { _, ok := set[l.SessionID]; return ok }), nil
}

func (a memLines) BySubscription(_ context.Context, subscriptionID primitive.ObjectID) ([]models.SubscriptionLine, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	return a.filter(func(l models.SubscriptionLine) bool { return l.SubscriptionID == subscriptionID }), nil
}

func (a memLines) update(id primitive.ObjectID, fn func(*models.SubscriptionLine)) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	l, ok := a.m.lines[id]
	if !ok {
		return notFound("subscription line", id)
	}
	fn(&l)
	a.m.lines[id] = l
	return nil
}

func (a memLines) SetState(_ context.Context, id primitive.ObjectID, state string) error {
	return a.update(id, func(l *models.SubscriptionLine) { l.State = state })
}

func (a memLines) SetInvoiceLine(_ context.Context, id primitive.ObjectID, ref string) error {
	return a.update(id, func(l *models.SubscriptionLine) { l.InvoiceLineID = ref })
}

// ---- stakeholders and requests ----

type memStakeholders struct{ m *MemStore }

func (a memStakeholders) BySeances(_ context.Context, seanceIDs []primitive.ObjectID) ([]models.Stakeholder, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	set := idSet(seanceIDs)
	out := []models.Stakeholder{}
	for _, s := range a.m.stakeholders {
		if _, ok := set[s.SeanceID]; ok {
			out = append(out, s)
		}
	}
	sortByID(out, func(s models.Stakeholder) primitive.ObjectID { return s.ID })
	return out, nil
}

func (a memStakeholders) SetState(_ context.Context, id primitive.ObjectID, state string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	s, ok := a.m.stakeholders[id]
	if !ok {
		return notFound("stakeholder", id)
	}
	s.State = state
	a.m.stakeholders[id] = s
	return nil
}

type memRequests struct{ m *MemStore }

func (a memRequests) BySession(_ context.Context, sessionID primitive.ObjectID) ([]models.StakeholderRequest, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	out := []models.StakeholderRequest{}
	for _, r := range a.m.requests {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sortByID(out, func(r models.StakeholderRequest) primitive.ObjectID { return r.ID })
	return out, nil
}

func (a memRequests) SetState(_ context.Context, id primitive.ObjectID, state string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	r, ok := a.m.requests[id]
	if !ok {
		return notFound("stakeholder request", id)
	}
	r.State = state
	a.m.requests[id] = r
	return nil
}

// ---- offers and suppliers ----

type memOffers struct{ m *MemStore }

func (a memOffers) Get(_ context.Context, id primitive.ObjectID) (models.Offer, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	o, ok := a.m.offers[id]
	if !ok {
		return models.Offer{}, notFound("offer", id)
	}
	return o, nil
}

type memSuppliers struct{ m *MemStore }

func (a memSuppliers) ByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Supplier, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	out := []models.Supplier{}
	for id := range idSet(ids) {
		if s, ok := a.m.suppliers[id]; ok {
			out = append(out, s)
		}
	}
	sortByID(out, func(s models.Supplier) primitive.ObjectID { return s.ID })
	return out, nil
}

// ---- collaborators ----

// FakeProcurement records purchase orders in memory. Each order gets one
// order-line ref.
type FakeProcurement struct {
	mu        sync.Mutex
	orders    []models.PurchaseOrder
	Cancelled []string
	// Err, when set, is returned by CreateFromLine.
	Err error
}

func (f *FakeProcurement) CreateFromLine(_ context.Context, seanceID primitive.ObjectID, line models.PurchaseLine, quantity float64, locationHint string) (models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.PurchaseOrder{}, f.Err
	}
	n := len(f.orders) + 1
	o := models.PurchaseOrder{
		ID:             fmt.Sprintf("PO-%d", n),
		SeanceID:       seanceID,
		PurchaseLineID: line.ID,
		ProductID:      line.ProductID,
		Quantity:       quantity,
		LocationHint:   locationHint,
		LineRefs:       []string{fmt.Sprintf("POL-%d", n)},
		State:          models.OrderConfirmed,
		CreatedAt:      time.Now().UTC(),
	}
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *FakeProcurement) Orders(_ context.Context, lineRefs []string) ([]models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]struct{}{}
	for _, r := range lineRefs {
		want[r] = struct{}{}
	}
	var out []models.PurchaseOrder
	for _, o := range f.orders {
		for _, r := range o.LineRefs {
			if _, ok := want[r]; ok {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (f *FakeProcurement) CancelOrder(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].State = models.OrderCancelled
			f.Cancelled = append(f.Cancelled, orderID)
			return nil
		}
	}
	return errs.NotFound("purchase order", orderID, nil)
}

// All returns a copy of every order issued so far.
func (f *FakeProcurement) All() []models.PurchaseOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PurchaseOrder(nil), f.orders...)
}

// FakeInvoicing hands out INV-n refs and records each call's lines.
type FakeInvoicing struct {
	mu    sync.Mutex
	n     int
	Calls [][]primitive.ObjectID
}

func (f *FakeInvoicing) CreateInvoices(_ context.Context, _ models.Session, lines []models.SubscriptionLine) (map[primitive.ObjectID]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := make(map[primitive.ObjectID]string, len(lines))
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		f.n++
		refs[l.ID] = fmt.Sprintf("INV-%d", f.n)
		ids = append(ids, l.ID)
	}
	f.Calls = append(f.Calls, ids)
	return refs, nil
}

// FakeNotifier records sent messages. Sends to an address in Fail return
// that error.
type FakeNotifier struct {
	mu   sync.Mutex
	Sent []models.Message
	Fail map[string]error
}

func (f *FakeNotifier) Send(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range msg.To {
		if err, ok := f.Fail[r.Email]; ok {
			return err
		}
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

// ByTemplate returns the recorded messages using the given template.
func (f *FakeNotifier) ByTemplate(tpl string) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.Sent {
		if m.Template == tpl {
			out = append(out, m)
		}
	}
	return out
}

// FakeReporter renders a placeholder document.
type FakeReporter struct {
	Err error
}

func (f FakeReporter) Render(_ context.Context, templateID string, entityID primitive.ObjectID, data models.NotificationData) (models.Document, error) {
	if f.Err != nil {
		return models.Document{}, f.Err
	}
	return models.Document{
		Filename:    templateID + "-" + entityID.Hex() + ".html",
		ContentType: "text/html; charset=utf-8",
		Content:     []byte("<p>" + data.SupplierName + "</p>"),
	}, nil
}

// FakeHolidays treats the listed calendar days as holidays.
type FakeHolidays []time.Time

func (f FakeHolidays) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	y, m, d := date.Date()
	for _, h := range f {
		hy, hm, hd := h.Date()
		if y == hy && m == hm && d == hd {
			return true, nil
		}
	}
	return false, nil
}

// FakeAuditor records transitions.
type FakeAuditor struct {
	mu      sync.Mutex
	Records []workflow.TransitionRecord
}

func (f *FakeAuditor) Transition(_ context.Context, rec workflow.TransitionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append(f.Records, rec)
}
