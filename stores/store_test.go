package stores_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/9seconds/ipsleuth/stores"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite

	ctx   context.Context
	store sleuthlib.SegmentStore
}

func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.NoError(suite.store.Close())
	}
}

func (suite *StoreTestSuite) TestMissing() {
	key := "missing_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	_, err := suite.store.Get(suite.ctx, key)

	suite.ErrorIs(err, sleuthlib.ErrSegmentNotFound)
}

func (suite *StoreTestSuite) TestRoundTrip() {
	suite.NoError(suite.store.Put(suite.ctx, "192_0_2", []byte(`{"success":true,"data":{"ip":"192.0.2.1"}}`)))

	data, err := suite.store.Get(suite.ctx, "192_0_2")

	suite.NoError(err)
	suite.JSONEq(`{"success":true,"data":{"ip":"192.0.2.1"}}`, string(data))
}

func (suite *StoreTestSuite) TestOverwrite() {
	key := "2001-db8--"

	suite.NoError(suite.store.Put(suite.ctx, key, []byte(`{"success":true,"data":{"country":"US"}}`)))
	suite.NoError(suite.store.Put(suite.ctx, key, []byte(`{"success":true,"data":{"city":"Berlin"}}`)))

	data, err := suite.store.Get(suite.ctx, key)

	suite.NoError(err)
	suite.JSONEq(`{"success":true,"data":{"city":"Berlin"}}`, string(data))
}

func (suite *StoreTestSuite) TestKeysAreIndependent() {
	suite.NoError(suite.store.Put(suite.ctx, "10_0_0", []byte(`{"success":true,"data":{"n":1}}`)))
	suite.NoError(suite.store.Put(suite.ctx, "10_0_1", []byte(`{"success":true,"data":{"n":2}}`)))

	data, err := suite.store.Get(suite.ctx, "10_0_0")

	suite.NoError(err)
	suite.JSONEq(`{"success":true,"data":{"n":1}}`, string(data))
}

type FSStoreTestSuite struct {
	StoreTestSuite

	fs afero.Fs
}

func (suite *FSStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.fs = afero.NewMemMapFs()

	store, err := stores.NewFS(suite.fs, "/cache")

	suite.Require().NoError(err)

	suite.store = store
}

func (suite *FSStoreTestSuite) TestName() {
	suite.Equal(stores.NameFS, suite.store.Name())
}

func (suite *FSStoreTestSuite) TestDocumentFile() {
	suite.NoError(suite.store.Put(suite.ctx, "10_0_0", []byte(`{"success":true,"data":{}}`)))

	exists, err := afero.Exists(suite.fs, "/cache/10_0_0"+stores.FsDocumentSuffix)

	suite.NoError(err)
	suite.True(exists)

	infos, err := afero.ReadDir(suite.fs, "/cache")

	suite.NoError(err)
	suite.Len(infos, 1)
}

func (suite *FSStoreTestSuite) TestInitialCleaning() {
	suite.NoError(afero.WriteFile(suite.fs, "/cache/"+stores.FsTempFilePrefix+"123", []byte("{"), 0o644))
	suite.NoError(afero.WriteFile(suite.fs, "/cache/10_0_0.json", []byte("{}"), 0o644))

	_, err := stores.NewFS(suite.fs, "/cache")

	suite.NoError(err)

	exists, _ := afero.Exists(suite.fs, "/cache/"+stores.FsTempFilePrefix+"123")
	suite.False(exists)

	exists, _ = afero.Exists(suite.fs, "/cache/10_0_0.json")
	suite.True(exists)
}

func (suite *FSStoreTestSuite) TestRejectBrokenDocument() {
	suite.Error(suite.store.Put(suite.ctx, "10_0_0", []byte(`{"success":`)))

	_, err := suite.store.Get(suite.ctx, "10_0_0")

	suite.ErrorIs(err, sleuthlib.ErrSegmentNotFound)
}

type SQLiteStoreTestSuite struct {
	StoreTestSuite

	dir string
}

func (suite *SQLiteStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()

	dir, err := os.MkdirTemp("", "ipsleuth_sqlite_test_")

	suite.Require().NoError(err)

	suite.dir = dir

	store, err := stores.NewSQLite(suite.ctx, filepath.Join(dir, "cache.db"))

	suite.Require().NoError(err)

	suite.store = store
}

func (suite *SQLiteStoreTestSuite) TearDownTest() {
	suite.StoreTestSuite.TearDownTest()
	os.RemoveAll(suite.dir)
}

func (suite *SQLiteStoreTestSuite) TestName() {
	suite.Equal(stores.NameSQLite, suite.store.Name())
}

func (suite *SQLiteStoreTestSuite) TestConcurrentPuts() {
	const (
		writers = 64
		puts    = 20
	)

	errs := make(chan error, writers*puts)
	wg := &sync.WaitGroup{}

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func(writer int) {
			defer wg.Done()

			for j := 0; j < puts; j++ {
				key := "10_" + strconv.Itoa(writer) + "_" + strconv.Itoa(j%4)
				doc := `{"success":true,"data":{"n":` + strconv.Itoa(j) + `}}`

				errs <- suite.store.Put(suite.ctx, key, []byte(doc))
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		suite.NoError(err)
	}

	data, err := suite.store.Get(suite.ctx, "10_0_3")

	suite.NoError(err)
	suite.JSONEq(`{"success":true,"data":{"n":19}}`, string(data))
}

func (suite *SQLiteStoreTestSuite) TestDSNWithParameters() {
	store, err := stores.NewSQLite(suite.ctx, filepath.Join(suite.dir, "params.db")+"?_txlock=immediate")

	suite.Require().NoError(err)

	defer store.Close()

	suite.NoError(store.Put(suite.ctx, "10_0_0", []byte(`{"success":true,"data":{}}`)))
}

func (suite *SQLiteStoreTestSuite) TestReopen() {
	suite.NoError(suite.store.Put(suite.ctx, "10_0_0", []byte(`{"success":true,"data":{}}`)))
	suite.NoError(suite.store.Close())

	store, err := stores.NewSQLite(suite.ctx, filepath.Join(suite.dir, "cache.db"))

	suite.Require().NoError(err)

	suite.store = store

	data, err := store.Get(suite.ctx, "10_0_0")

	suite.NoError(err)
	suite.JSONEq(`{"success":true,"data":{}}`, string(data))
}

type RedisStoreTestSuite struct {
	StoreTestSuite
}

func (suite *RedisStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()

	store, err := stores.NewRedis(suite.ctx, &redis.Options{
		Addr: os.Getenv("IPSLEUTH_TEST_REDIS_ADDR"),
		DB:   15,
	}, "ipsleuth:test:"+suite.T().Name()+":")

	suite.Require().NoError(err)

	suite.store = store
}

type PostgresStoreTestSuite struct {
	StoreTestSuite
}

func (suite *PostgresStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()

	store, err := stores.NewPostgres(suite.ctx, os.Getenv("IPSLEUTH_TEST_POSTGRES_DSN"))

	suite.Require().NoError(err)

	suite.store = store
}

func TestFSStore(t *testing.T) {
	suite.Run(t, &FSStoreTestSuite{})
}

func TestSQLiteStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipped because of the short mode")
	}

	suite.Run(t, &SQLiteStoreTestSuite{})
}

func TestRedisStore(t *testing.T) {
	if os.Getenv("IPSLEUTH_TEST_REDIS_ADDR") == "" {
		t.Skip("IPSLEUTH_TEST_REDIS_ADDR is not set")
	}

	suite.Run(t, &RedisStoreTestSuite{})
}

func TestPostgresStore(t *testing.T) {
	if os.Getenv("IPSLEUTH_TEST_POSTGRES_DSN") == "" {
		t.Skip("IPSLEUTH_TEST_POSTGRES_DSN is not set")
	}

	suite.Run(t, &PostgresStoreTestSuite{})
}
