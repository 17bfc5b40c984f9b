package cli

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) string {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "turni.db"))
	t.Setenv("PLANNER_ROSTER_FILE", "")
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPreview(t *testing.T) {
	color.NoColor = true
	t.Setenv("PLANNER_ROSTER_FILE", "")

	out, err := run(t, "", "preview", "--month", "2025-01")
	require.NoError(t, err)

	assert.Contains(t, out, "Turni disponibili: 47")
	assert.Contains(t, out, "2025-01-01")
	assert.Contains(t, out, "Rotazioni assegnate: 8")
	assert.Contains(t, out, "DIPENDENTE")
}

func TestPreview_MissingMonth(t *testing.T) {
	_, err := run(t, "", "preview")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--month")
}

func TestGenerate(t *testing.T) {
	setupDB(t)

	out, err := run(t, "", "generate", "--month", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01  generato (31 turni)")

	out, err = run(t, "", "generate", "--month", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01  saltato")

	out, err = run(t, "", "stats", "--month", "2025-01")
	require.NoError(t, err)
	for _, name := range []string{"Dario", "Marco", "Morena"} {
		assert.Contains(t, out, name)
	}
}

func TestGenerate_Range(t *testing.T) {
	setupDB(t)

	out, err := run(t, "", "generate", "--from", "2025-02", "--to", "2025-04")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "2025-02"))
	assert.True(t, strings.HasPrefix(lines[2], "2025-04"))
}

// 中途失败时仍然列出已经保存的月份
func TestGenerate_RangePartialFailure(t *testing.T) {
	dir := setupDB(t)
	t.Setenv("PLANNER_RANGE_PARALLELISM", "1")

	// 先建表，再放一条占用 2025-03-05 的记录让三月的写入冲突
	_, err := run(t, "", "stats", "--month", "2024-12")
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", filepath.Join(dir, "turni.db"))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO shifts (shift_date, month_year, day_of_week, morning_shift, afternoon_shift, notes, created_at)
		VALUES ('2025-03-05', '2024-12', 'Mercoledì', 'Dario', 'Marco', '', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := run(t, "", "generate", "--from", "2025-01", "--to", "2025-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-03")
	assert.Contains(t, out, "2025-01  generato (31 turni)")
	assert.Contains(t, out, "2025-02  generato (28 turni)")
	assert.NotContains(t, out, "2025-03  generato")
}

func TestGenerate_Flags(t *testing.T) {
	setupDB(t)

	_, err := run(t, "", "generate")
	require.Error(t, err)

	_, err = run(t, "", "generate", "--month", "2025-01", "--from", "2025-02", "--to", "2025-03")
	require.Error(t, err)
}

func TestExportDeleteImport(t *testing.T) {
	dir := setupDB(t)
	csvPath := filepath.Join(dir, "gennaio.csv")

	_, err := run(t, "", "generate", "--month", "2025-01")
	require.NoError(t, err)

	_, err = run(t, "", "export", "--month", "2025-01", "--out", csvPath)
	require.NoError(t, err)

	exported, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(exported), "date,day_of_week,morning_shift,afternoon_shift,notes\n"))
	assert.Len(t, strings.Split(strings.TrimSpace(string(exported)), "\n"), 32)

	// 已有班次的月份不能导入
	_, err = run(t, "", "import", "--month", "2025-01", "--in", csvPath)
	require.Error(t, err)

	// 不确认时不删除
	out, err := run(t, "n\n", "delete", "--month", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "annullato")

	out, err = run(t, "", "delete", "--month", "2025-01", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "eliminati 31 turni")

	out, err = run(t, "", "import", "--month", "2025-01", "--in", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "importati 31 turni")

	stdout, err := run(t, "", "export", "--month", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, string(exported), stdout)
}

func TestImport_WrongMonth(t *testing.T) {
	setupDB(t)

	csv := "date,day_of_week,morning_shift,afternoon_shift,notes\n" +
		"2025-02-03,Lunedì,Dario,Marco,\n"

	_, err := run(t, csv, "import", "--month", "2025-01")
	require.Error(t, err)
}

func TestSeedStaff(t *testing.T) {
	setupDB(t)

	out, err := run(t, "", "seed-staff", "--email-domain", "libreria.test")
	require.NoError(t, err)
	assert.Contains(t, out, "dario")
	assert.NotContains(t, out, "(già presente)")

	out, err = run(t, "", "seed-staff")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "(già presente)"))
}
