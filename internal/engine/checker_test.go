package engine

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"db-check/internal/dialect"
	"db-check/internal/diff"
	"db-check/internal/errs"
	"db-check/internal/record"
	"db-check/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idCol    = &schema.Column{Name: "id", DataType: "bigint", Position: 1, IsPK: true}
	nameCol  = &schema.Column{Name: "name", DataType: "varchar", Position: 2}
	emailCol = &schema.Column{Name: "email", DataType: "varchar", Position: 3}
	eventCol = &schema.Column{Name: "event", DataType: "varchar", Position: 1}
	atCol    = &schema.Column{Name: "at", DataType: "bigint", Position: 2}

	usersTable = &schema.Table{Schema: "app", Name: "users", PrimaryKeys: []*schema.Column{idCol}, Columns: []*schema.Column{nameCol}}
	logTable   = &schema.Table{Schema: "", Name: "log", Columns: []*schema.Column{eventCol, atCol}}
)

const (
	usersBatch3 = "SELECT `id`, `name` FROM `app`.`users` WHERE `id` IN (?, ?, ?)"
	usersByKey  = "SELECT `id`, `name` FROM `app`.`users` WHERE `id` = ?"
)

type stubDescriber struct {
	tables map[string]*schema.Table
	calls  atomic.Int32
}

func newStubDescriber(tables ...*schema.Table) *stubDescriber {
	d := &stubDescriber{tables: make(map[string]*schema.Table)}
	for _, t := range tables {
		d.tables[t.Name] = t
	}
	return d
}

func (d *stubDescriber) Describe(ctx context.Context, schemaName, table string) (*schema.Table, error) {
	d.calls.Add(1)
	if t, ok := d.tables[table]; ok {
		return t, nil
	}
	return nil, &errs.MetadataError{Schema: schemaName, Table: table, Err: errors.New("table not found")}
}

type recorder struct {
	mu    sync.Mutex
	diffs []diff.Diff
}

func (r *recorder) Report(d diff.Diff) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diffs = append(r.diffs, d)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.diffs))
	for i, d := range r.diffs {
		out[i] = fmt.Sprintf("%s:%s", d.Kind, d.DisplayKey())
	}
	return out
}

func newChecker(t *testing.T, batch bool, describer schema.Describer) (*Checker, sqlmock.Sqlmock, *recorder) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rec := &recorder{}
	c := New(db, Options{
		BatchApply: batch,
		Dialect:    dialect.GetDialect("mysql"),
		Describer:  describer,
	}, diff.FieldComparator{}, rec, nil)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	return c, mock, rec
}

func user(id int64, name string) *record.Record {
	return record.New("app", "users").AddPrimaryKey(idCol, id).AddColumn(nameCol, name)
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name"})
}

// Scenario A: every record exists on the target.
func TestApply_Batch_AllPresent(t *testing.T) {
	c, mock, rec := newChecker(t, true, newStubDescriber(usersTable))

	mock.ExpectQuery(usersBatch3).WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(userRows().AddRow(int64(3), "c").AddRow(int64(1), "a").AddRow(int64(2), "b"))

	err := c.Apply(context.Background(), []*record.Record{user(1, "a"), user(2, "b"), user(3, "c")})
	require.NoError(t, err)

	assert.Equal(t, []string{"matched:1", "matched:2", "matched:3"}, rec.kinds())
	for _, d := range rec.diffs {
		assert.Empty(t, d.Mismatches)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Scenario B: one record is missing on the target.
func TestApply_Batch_MissingRow(t *testing.T) {
	c, mock, rec := newChecker(t, true, newStubDescriber(usersTable))

	mock.ExpectQuery(usersBatch3).WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(userRows().AddRow(int64(1), "a").AddRow(int64(3), "c"))

	err := c.Apply(context.Background(), []*record.Record{user(1, "a"), user(2, "b"), user(3, "c")})
	require.NoError(t, err)

	assert.Equal(t, []string{"matched:1", "source_only:2", "matched:3"}, rec.kinds())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_RowByRow_MissingRow(t *testing.T) {
	c, mock, rec := newChecker(t, false, newStubDescriber(usersTable))

	prep := mock.ExpectPrepare(usersByKey)
	prep.ExpectQuery().WithArgs(int64(1)).WillReturnRows(userRows().AddRow(int64(1), "a"))
	prep.ExpectQuery().WithArgs(int64(2)).WillReturnRows(userRows())
	prep.ExpectQuery().WithArgs(int64(3)).WillReturnRows(userRows().AddRow(int64(3), "c"))

	err := c.Apply(context.Background(), []*record.Record{user(1, "a"), user(2, "b"), user(3, "c")})
	require.NoError(t, err)

	assert.Equal(t, []string{"matched:1", "source_only:2", "matched:3"}, rec.kinds())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_ReportsFieldMismatch(t *testing.T) {
	c, mock, rec := newChecker(t, true, newStubDescriber(usersTable))

	mock.ExpectQuery("SELECT `id`, `name` FROM `app`.`users` WHERE `id` IN (?)").WithArgs(int64(1)).
		WillReturnRows(userRows().AddRow(int64(1), []byte("alicia")))

	require.NoError(t, c.Apply(context.Background(), []*record.Record{user(1, "alice")}))

	require.Len(t, rec.diffs, 1)
	require.Len(t, rec.diffs[0].Mismatches, 1)
	assert.Equal(t, "name: source=alice target=alicia", rec.diffs[0].Mismatches[0].String())
}

// Scenario C: a table without a primary key is looked up by every column.
func TestApply_NoPrimaryKey(t *testing.T) {
	logRecord := func(event string, at int64) *record.Record {
		return record.New("", "log").AddColumn(eventCol, event).AddColumn(atCol, at)
	}
	records := []*record.Record{logRecord("login", 10), logRecord("logout", 20)}

	t.Run("batch", func(t *testing.T) {
		c, mock, rec := newChecker(t, true, newStubDescriber(logTable))

		mock.ExpectQuery("SELECT `event`, `at` FROM `log` WHERE (`event`, `at`) IN ((?, ?), (?, ?))").
			WithArgs("login", int64(10), "logout", int64(20)).
			WillReturnRows(sqlmock.NewRows([]string{"event", "at"}).AddRow("login", int64(10)))

		require.NoError(t, c.Apply(context.Background(), records))
		assert.Equal(t, []string{"matched:login,10", "source_only:logout,20"}, rec.kinds())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row by row", func(t *testing.T) {
		c, mock, rec := newChecker(t, false, newStubDescriber(logTable))

		prep := mock.ExpectPrepare("SELECT `event`, `at` FROM `log` WHERE `event` = ? AND `at` = ?")
		prep.ExpectQuery().WithArgs("login", int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"event", "at"}).AddRow("login", int64(10)))
		prep.ExpectQuery().WithArgs("logout", int64(20)).
			WillReturnRows(sqlmock.NewRows([]string{"event", "at"}))

		require.NoError(t, c.Apply(context.Background(), records))
		assert.Equal(t, []string{"matched:login,10", "source_only:logout,20"}, rec.kinds())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Scenario D: the target has a column the records do not carry.
func TestApply_SchemaDrift(t *testing.T) {
	wide := &schema.Table{Schema: "app", Name: "users", PrimaryKeys: []*schema.Column{idCol}, Columns: []*schema.Column{nameCol, emailCol}}

	for _, batch := range []bool{true, false} {
		t.Run(fmt.Sprintf("batch=%t", batch), func(t *testing.T) {
			c, mock, rec := newChecker(t, batch, newStubDescriber(wide))

			err := c.Apply(context.Background(), []*record.Record{user(1, "a")})

			var drift *errs.SchemaDriftError
			require.ErrorAs(t, err, &drift)
			assert.Equal(t, []string{"email"}, drift.Missing)
			assert.Empty(t, rec.diffs)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApply_UnknownColumnIsDrift(t *testing.T) {
	c, _, _ := newChecker(t, true, newStubDescriber(usersTable))

	r := user(1, "a").AddColumn(&schema.Column{Name: "phone", DataType: "varchar"}, "555")
	err := c.Apply(context.Background(), []*record.Record{r})

	var drift *errs.SchemaDriftError
	require.ErrorAs(t, err, &drift)
	assert.Equal(t, []string{"phone"}, drift.Missing)
}

func TestApply_RecordMissingKeyValue(t *testing.T) {
	headless := record.New("app", "users").AddColumn(nameCol, "ghost")

	for _, batch := range []bool{true, false} {
		t.Run(fmt.Sprintf("batch=%t", batch), func(t *testing.T) {
			c, mock, _ := newChecker(t, batch, newStubDescriber(usersTable))
			if !batch {
				prep := mock.ExpectPrepare(usersByKey)
				prep.ExpectQuery().WithArgs(int64(1)).WillReturnRows(userRows().AddRow(int64(1), "a"))
			}

			err := c.Apply(context.Background(), []*record.Record{user(1, "a"), headless})

			var drift *errs.SchemaDriftError
			require.ErrorAs(t, err, &drift)
			assert.Equal(t, []string{"id"}, drift.Missing)
			assert.Contains(t, drift.Error(), "failed record data: app.users{name=ghost}")
		})
	}
}

func TestApply_QueryFailure(t *testing.T) {
	c, mock, _ := newChecker(t, true, newStubDescriber(usersTable))

	cause := errors.New("ORA-00942")
	mock.ExpectQuery("SELECT `id`, `name` FROM `app`.`users` WHERE `id` IN (?)").WillReturnError(cause)

	err := c.Apply(context.Background(), []*record.Record{user(1, "a")})
	var qe *errs.QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.ErrorIs(t, err, cause)
}

func TestApply_MetadataFailure(t *testing.T) {
	c, _, _ := newChecker(t, true, newStubDescriber())

	err := c.Apply(context.Background(), []*record.Record{user(1, "a")})
	var me *errs.MetadataError
	assert.ErrorAs(t, err, &me)
}

func TestApply_NotStarted(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := New(db, Options{Dialect: dialect.GetDialect("mysql")}, nil, nil, nil)

	assert.NoError(t, c.Apply(context.Background(), nil))

	err = c.Apply(context.Background(), []*record.Record{user(1, "a")})
	var ia *errs.InvalidArgumentError
	assert.ErrorAs(t, err, &ia)
}

func TestStart_DetectFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := New(db, Options{}, nil, nil, nil)
	var ia *errs.InvalidArgumentError
	assert.ErrorAs(t, c.Start(context.Background()), &ia)
}

func TestStart_TargetEncodingOnlyForOracle(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mysqlChecker := New(db, Options{Dialect: dialect.GetDialect("mysql"), TargetEncoding: "euc-kr"}, nil, nil, nil)
	require.NoError(t, mysqlChecker.Start(context.Background()))
	assert.Nil(t, mysqlChecker.run.enc)

	oracleChecker := New(db, Options{Dialect: dialect.GetDialect("oracle"), TargetEncoding: "euc-kr"}, nil, nil, nil)
	require.NoError(t, oracleChecker.Start(context.Background()))
	assert.NotNil(t, oracleChecker.run.enc)

	bad := New(db, Options{Dialect: dialect.GetDialect("oracle"), TargetEncoding: "klingon"}, nil, nil, nil)
	assert.Error(t, bad.Start(context.Background()))
}

func TestApply_DescribesOncePerTable(t *testing.T) {
	describer := newStubDescriber(usersTable)
	c, mock, _ := newChecker(t, true, describer)

	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT `id`, `name` FROM `app`.`users` WHERE `id` IN (?)").WithArgs(int64(i)).
			WillReturnRows(userRows().AddRow(int64(i), "x"))
		require.NoError(t, c.Apply(context.Background(), []*record.Record{user(int64(i), "x")}))
	}
	assert.Equal(t, int32(1), describer.calls.Load())

	c.Stop()
	require.NoError(t, c.Start(context.Background()))
	mock.ExpectQuery("SELECT `id`, `name` FROM `app`.`users` WHERE `id` IN (?)").WithArgs(int64(9)).
		WillReturnRows(userRows())
	require.NoError(t, c.Apply(context.Background(), []*record.Record{user(9, "x")}))
	assert.Equal(t, int32(2), describer.calls.Load())
}

// Both strategies must classify every key identically.
func TestStrategiesAgree(t *testing.T) {
	faker := gofakeit.New(7)

	var records []*record.Record
	present := make(map[int64]string)
	for i := int64(1); i <= 25; i++ {
		name := faker.Name()
		records = append(records, user(i, name))
		switch {
		case faker.Bool():
			present[i] = name
		case faker.Bool():
			present[i] = faker.Name()
		}
	}

	batchChecker, batchMock, batchRec := newChecker(t, true, newStubDescriber(usersTable))
	rows := userRows()
	args := make([]driver.Value, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		id := records[i].PrimaryKeys[0].Value.(int64)
		if name, ok := present[id]; ok {
			rows.AddRow(id, name)
		}
	}
	for _, r := range records {
		args = append(args, r.PrimaryKeys[0].Value)
	}
	query := "SELECT `id`, `name` FROM `app`.`users` WHERE `id` IN (" + dialect.GeneratePlaceholders(0, len(records), func(int) string { return "?" }) + ")"
	batchMock.ExpectQuery(query).WithArgs(args...).WillReturnRows(rows)
	require.NoError(t, batchChecker.Apply(context.Background(), records))

	rowChecker, rowMock, rowRec := newChecker(t, false, newStubDescriber(usersTable))
	prep := rowMock.ExpectPrepare(usersByKey)
	for _, r := range records {
		id := r.PrimaryKeys[0].Value.(int64)
		result := userRows()
		if name, ok := present[id]; ok {
			result.AddRow(id, name)
		}
		prep.ExpectQuery().WithArgs(id).WillReturnRows(result)
	}
	require.NoError(t, rowChecker.Apply(context.Background(), records))

	assert.Equal(t, batchRec.kinds(), rowRec.kinds())
	require.Len(t, rowRec.diffs, len(records))
	for i := range batchRec.diffs {
		assert.Equal(t, len(batchRec.diffs[i].Mismatches), len(rowRec.diffs[i].Mismatches), batchRec.diffs[i].Key)
	}
	assert.NoError(t, batchMock.ExpectationsWereMet())
	assert.NoError(t, rowMock.ExpectationsWereMet())
}

func TestApply_Batch_SplitsAtDialectLimit(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	oracle := dialect.GetDialect("oracle")
	rec := &recorder{}
	c := New(db, Options{BatchApply: true, Dialect: oracle, Describer: newStubDescriber(usersTable)}, diff.FieldComparator{}, rec, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	limit := oracle.MaxBatchRows(1)
	records := make([]*record.Record, limit+1)
	args := make([]driver.Value, limit+1)
	for i := range records {
		records[i] = user(int64(i), "x")
		args[i] = int64(i)
	}

	mock.ExpectQuery(oracle.SelectByKeyBatchQuery("app", "users", []string{"id"}, []string{"name"}, limit)).
		WithArgs(args[:limit]...).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(int64(0), "x"))
	mock.ExpectQuery(oracle.SelectByKeyBatchQuery("app", "users", []string{"id"}, []string{"name"}, 1)).
		WithArgs(args[limit:]...).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(int64(limit), "x"))

	require.NoError(t, c.Apply(context.Background(), records))

	kinds := rec.kinds()
	require.Len(t, kinds, limit+1)
	assert.Equal(t, "matched:0", kinds[0])
	assert.Equal(t, fmt.Sprintf("matched:%d", limit), kinds[limit])
	assert.Equal(t, "source_only:1", kinds[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}
