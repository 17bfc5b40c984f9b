package seed

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var march2025 = domain.Month{Year: 2025, Month: time.March}

func TestCSV_RoundTrip(t *testing.T) {
	shifts := []*domain.Shift{
		{Date: "2025-03-01", MonthYear: "2025-03", DayOfWeek: "Sabato", MorningShift: "Dario", AfternoonShift: "Marco"},
		{Date: "2025-03-02", MonthYear: "2025-03", DayOfWeek: "Domenica", MorningShift: domain.ShiftClosed, AfternoonShift: "Morena", Notes: "inventario, magazzino"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, shifts))
	assert.True(t, strings.HasPrefix(buf.String(), "date,day_of_week,morning_shift,afternoon_shift,notes\n"))
	assert.Contains(t, buf.String(), `"inventario, magazzino"`)

	got, err := ReadCSV(&buf, march2025)
	require.NoError(t, err)
	if diff := cmp.Diff(shifts, got); diff != "" {
		t.Errorf("ReadCSV (-atteso +ottenuto):\n%s", diff)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"bad header":     "data,giorno,mattina,pomeriggio,note\n",
		"missing column": "date,day_of_week,morning_shift,afternoon_shift,notes\n2025-03-01,Sabato,Dario,Marco\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(input), march2025)
			assert.Error(t, err)
		})
	}
}

func TestReadCSV_BOM(t *testing.T) {
	input := "\ufeffdate,day_of_week,morning_shift,afternoon_shift,notes\n2025-03-01, Sabato ,Dario,Marco,\n"
	got, err := ReadCSV(strings.NewReader(input), march2025)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sabato", got[0].DayOfWeek)
	assert.Equal(t, "2025-03", got[0].MonthYear)
}

type memoryUsers struct {
	users map[string]*domain.User
}

func (m *memoryUsers) GetUserByUsername(username string) (*domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *memoryUsers) CreateUser(user *domain.User) error {
	user.ID = int64(len(m.users) + 1)
	m.users[user.Username] = user
	return nil
}

func TestSeedStaff(t *testing.T) {
	store := &memoryUsers{users: map[string]*domain.User{
		"marco": {Username: "marco"},
	}}

	accounts, err := SeedStaff(store, domain.DefaultRoster(), "libreria.example", 10)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.True(t, accounts[0].Created)
	assert.Equal(t, "dario", accounts[0].Username)
	assert.Len(t, accounts[0].Password, 10)
	assert.False(t, accounts[1].Created)
	assert.Empty(t, accounts[1].Password)

	dario := store.users["dario"]
	assert.Equal(t, "Dario", dario.WorkerName)
	assert.Equal(t, domain.RoleClerk, dario.Role)
	assert.Equal(t, "dario@libreria.example", dario.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(dario.PasswordHash), []byte(accounts[0].Password)))

	// 再次执行不会创建新用户
	accounts, err = SeedStaff(store, domain.DefaultRoster(), "libreria.example", 10)
	require.NoError(t, err)
	for _, a := range accounts {
		assert.False(t, a.Created, a.Username)
	}
}
