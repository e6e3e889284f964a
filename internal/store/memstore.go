package store

import (
	"context"
	"strings"
	"sync"
)

// Mem is an in-memory Store. It backs the pipeline's tests and doubles as a
// compact reference for the transactional contract: InTx snapshots the whole
// state and restores it when fn fails, so nested calls behave like savepoints.
type Mem struct {
	mu     sync.Mutex
	data   *memData
	writes int

	// Hooks let tests inject failures at specific commit steps.
	Hooks MemHooks
}

// MemHooks are optional failure-injection points. A non-nil hook runs before
// the corresponding write; returning an error aborts it.
type MemHooks struct {
	BeforeCreatePerson  func(*Person) error
	BeforeCreateAccount func(*Account) error
}

type namedRec struct {
	ID   int64
	Name string
}

type departmentRec struct {
	ID        int64
	Name      string
	CompanyID int64
}

type bankAccountRec struct {
	ID        int64
	Number    string
	CompanyID int64
}

type memData struct {
	seq          int64
	companies    map[int64]namedRec
	departments  map[int64]departmentRec
	jobs         map[int64]namedRec
	lookups      map[LookupKind]map[int64]namedRec
	countries    map[int64]namedRec
	roles        map[int64]namedRec
	persons      map[int64]*Person
	bankAccounts map[int64]bankAccountRec
	personBanks  map[int64][]int64
	accounts     map[int64]*Account
	secrets      map[int64]string
	importLogs   map[int64]*ImportLog
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem {
	return &Mem{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		companies:    map[int64]namedRec{},
		departments:  map[int64]departmentRec{},
		jobs:         map[int64]namedRec{},
		lookups:      map[LookupKind]map[int64]namedRec{},
		countries:    map[int64]namedRec{},
		roles:        map[int64]namedRec{},
		persons:      map[int64]*Person{},
		bankAccounts: map[int64]bankAccountRec{},
		personBanks:  map[int64][]int64{},
		accounts:     map[int64]*Account{},
		secrets:      map[int64]string{},
		importLogs:   map[int64]*ImportLog{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	c.seq = d.seq
	for k, v := range d.companies {
		c.companies[k] = v
	}
	for k, v := range d.departments {
		c.departments[k] = v
	}
	for k, v := range d.jobs {
		c.jobs[k] = v
	}
	for kind, m := range d.lookups {
		inner := map[int64]namedRec{}
		for k, v := range m {
			inner[k] = v
		}
		c.lookups[kind] = inner
	}
	for k, v := range d.countries {
		c.countries[k] = v
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	for k, v := range d.persons {
		cp := *v
		c.persons[k] = &cp
	}
	for k, v := range d.bankAccounts {
		c.bankAccounts[k] = v
	}
	for k, v := range d.personBanks {
		c.personBanks[k] = append([]int64(nil), v...)
	}
	for k, v := range d.accounts {
		cp := *v
		cp.RoleIDs = append([]int64(nil), v.RoleIDs...)
		c.accounts[k] = &cp
	}
	for k, v := range d.secrets {
		c.secrets[k] = v
	}
	for k, v := range d.importLogs {
		cp := *v
		c.importLogs[k] = &cp
	}
	return c
}

func (m *Mem) nextID() int64 {
	m.data.seq++
	return m.data.seq
}

// WriteCount reports how many write operations have been attempted. It is
// never rolled back, which lets tests assert that validation issued no
// writes at all rather than writes that were later undone.
func (m *Mem) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Seed helpers populate entities the Store interface has no create method
// for (companies, countries, roles) plus anything tests need preloaded.

func (m *Mem) SeedCompany(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.data.companies[id] = namedRec{ID: id, Name: name}
	return id
}

func (m *Mem) SeedCountry(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.data.countries[id] = namedRec{ID: id, Name: name}
	return id
}

func (m *Mem) SeedRole(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.data.roles[id] = namedRec{ID: id, Name: name}
	return id
}

// PersonCount reports how many person records exist.
func (m *Mem) PersonCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.persons)
}

// AccountCount reports how many account records exist.
func (m *Mem) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.accounts)
}

// PersonSnapshot returns a copy of the person with the given id number,
// for tests.
func (m *Mem) PersonSnapshot(idNumber string) (Person, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data.persons {
		if p.IDNumber == idNumber {
			return *p, true
		}
	}
	return Person{}, false
}

// Secret returns the stored credential for an account, for tests.
func (m *Mem) Secret(accountID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data.secrets[accountID]
	return s, ok
}

// ImportLogs returns the persisted run summaries, for tests.
func (m *Mem) ImportLogs() []*ImportLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ImportLog, 0, len(m.data.importLogs))
	for _, l := range m.data.importLogs {
		cp := *l
		out = append(out, &cp)
	}
	return out
}

func (m *Mem) FindCompanyByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.data.companies {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) FindDepartment(_ context.Context, name string, companyID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.data.departments {
		if d.Name == name && d.CompanyID == companyID {
			return d.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) CreateDepartment(_ context.Context, name string, companyID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	m.data.departments[id] = departmentRec{ID: id, Name: name, CompanyID: companyID}
	return id, nil
}

func (m *Mem) FindJobByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.data.jobs {
		if j.Name == name {
			return j.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) CreateJob(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	m.data.jobs[id] = namedRec{ID: id, Name: name}
	return id, nil
}

func (m *Mem) FindLookup(_ context.Context, kind LookupKind, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.data.lookups[kind] {
		if strings.EqualFold(r.Name, name) {
			return r.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) CreateLookup(_ context.Context, kind LookupKind, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	if m.data.lookups[kind] == nil {
		m.data.lookups[kind] = map[int64]namedRec{}
	}
	m.data.lookups[kind][id] = namedRec{ID: id, Name: name}
	return id, nil
}

func (m *Mem) FindCountryByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.data.countries {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) FindPersonByIDNumber(_ context.Context, idNumber string) (PersonRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data.persons {
		if p.IDNumber == idNumber {
			return PersonRef{ID: p.ID, Name: p.Name}, nil
		}
	}
	return PersonRef{}, ErrNotFound
}

func (m *Mem) FindPersonByDeviceID(_ context.Context, deviceID string) (PersonRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data.persons {
		if p.DeviceID == deviceID {
			return PersonRef{ID: p.ID, Name: p.Name}, nil
		}
	}
	return PersonRef{}, ErrNotFound
}

func (m *Mem) FindPersonByWorkEmail(_ context.Context, email string) (PersonRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data.persons {
		if strings.EqualFold(p.WorkEmail, email) {
			return PersonRef{ID: p.ID, Name: p.Name}, nil
		}
	}
	return PersonRef{}, ErrNotFound
}

func (m *Mem) CreatePerson(_ context.Context, p *Person) (int64, error) {
	if m.Hooks.BeforeCreatePerson != nil {
		if err := m.Hooks.BeforeCreatePerson(p); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	cp := *p
	cp.ID = id
	m.data.persons[id] = &cp
	return id, nil
}

func (m *Mem) UpdatePersonPhones(_ context.Context, personID int64, work, mobile, private string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	p, ok := m.data.persons[personID]
	if !ok {
		return ErrNotFound
	}
	p.WorkPhone = work
	p.MobilePhone = mobile
	p.PrivatePhone = private
	return nil
}

func (m *Mem) LinkPersonAccount(_ context.Context, personID, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	p, ok := m.data.persons[personID]
	if !ok {
		return ErrNotFound
	}
	p.AccountID = &accountID
	return nil
}

func (m *Mem) FindBankAccountByNumber(_ context.Context, number string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.data.bankAccounts {
		if b.Number == number {
			return b.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) CreateBankAccount(_ context.Context, number string, companyID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	m.data.bankAccounts[id] = bankAccountRec{ID: id, Number: number, CompanyID: companyID}
	return id, nil
}

func (m *Mem) AttachBankAccount(_ context.Context, personID, bankAccountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if _, ok := m.data.persons[personID]; !ok {
		return ErrNotFound
	}
	m.data.personBanks[personID] = append(m.data.personBanks[personID], bankAccountID)
	return nil
}

func (m *Mem) FindRoleByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.data.roles {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Mem) FindAccountByLogin(_ context.Context, login string) (PersonRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.data.accounts {
		if strings.EqualFold(a.Login, login) {
			return PersonRef{ID: a.ID, Name: a.Name}, nil
		}
	}
	return PersonRef{}, ErrNotFound
}

func (m *Mem) CreateAccount(_ context.Context, a *Account) (int64, error) {
	if m.Hooks.BeforeCreateAccount != nil {
		if err := m.Hooks.BeforeCreateAccount(a); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	cp := *a
	cp.ID = id
	cp.RoleIDs = append([]int64(nil), a.RoleIDs...)
	m.data.accounts[id] = &cp
	return id, nil
}

func (m *Mem) SetAccountSecret(_ context.Context, accountID int64, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if _, ok := m.data.accounts[accountID]; !ok {
		return ErrNotFound
	}
	m.data.secrets[accountID] = credential
	return nil
}

func (m *Mem) CreateImportLog(_ context.Context, log *ImportLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := m.nextID()
	cp := *log
	cp.ID = id
	m.data.importLogs[id] = &cp
	return id, nil
}

// InTx snapshots the current state, runs fn against the same store, and
// restores the snapshot when fn errors. Nesting works because each call
// takes its own snapshot.
func (m *Mem) InTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	snap := m.data.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.data = snap
		m.mu.Unlock()
		return err
	}
	return nil
}
