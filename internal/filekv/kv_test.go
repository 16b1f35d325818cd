package filekv

import (
	"path/filepath"
	"testing"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openTempKV(t *testing.T) (*SingleFileKV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "programs.kv")
	kv, err := OpenSingleFileKV(KvStoreConfig{Path: path, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv, path
}

func TestSingleFileKV(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("programs are loaded in the order they were stored", func(t *testing.T) {
		kv, _ := openTempKV(t)

		var programs []core.StoredProgram
		for _, name := range []string{"z", "a", "m", "b:c", "1"} {
			programs = append(programs, core.StoredProgram{Name: name, Data: []byte(`{"Name":"` + name + `"}`)})
		}
		require.NoError(t, kv.ReplaceWorld("overworld", programs))

		loaded, err := kv.LoadWorld("overworld")
		require.NoError(t, err)
		assert.Equal(t, programs, loaded)
	})

	t.Run("more than ten programs", func(t *testing.T) {
		kv, _ := openTempKV(t)

		var programs []core.StoredProgram
		for i := 0; i < 12; i++ {
			programs = append(programs, core.StoredProgram{Name: string(rune('a' + 11 - i)), Data: []byte{byte(i)}})
		}
		require.NoError(t, kv.ReplaceWorld("overworld", programs))

		loaded, err := kv.LoadWorld("overworld")
		require.NoError(t, err)
		assert.Equal(t, programs, loaded)
	})

	t.Run("replacing a world removes its previous programs", func(t *testing.T) {
		kv, _ := openTempKV(t)

		require.NoError(t, kv.ReplaceWorld("overworld", []core.StoredProgram{{Name: "a", Data: []byte("1")}, {Name: "b", Data: []byte("2")}}))
		require.NoError(t, kv.ReplaceWorld("overworld", []core.StoredProgram{{Name: "c", Data: []byte("3")}}))

		loaded, err := kv.LoadWorld("overworld")
		require.NoError(t, err)
		assert.Equal(t, []core.StoredProgram{{Name: "c", Data: []byte("3")}}, loaded)

		require.NoError(t, kv.ReplaceWorld("overworld", nil))
		loaded, err = kv.LoadWorld("overworld")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("worlds are independent", func(t *testing.T) {
		kv, _ := openTempKV(t)

		require.NoError(t, kv.ReplaceWorld("overworld", []core.StoredProgram{{Name: "a", Data: []byte("1")}}))
		require.NoError(t, kv.ReplaceWorld("nether", []core.StoredProgram{{Name: "b", Data: []byte("2")}}))

		worlds, err := kv.Worlds()
		require.NoError(t, err)
		assert.Equal(t, []string{"nether", "overworld"}, worlds)

		loaded, err := kv.LoadWorld("nether")
		require.NoError(t, err)
		assert.Equal(t, []core.StoredProgram{{Name: "b", Data: []byte("2")}}, loaded)

		require.NoError(t, kv.DeleteWorld("nether"))
		require.NoError(t, kv.DeleteWorld("end"))

		loaded, err = kv.LoadWorld("nether")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("unknown world", func(t *testing.T) {
		kv, _ := openTempKV(t)

		loaded, err := kv.LoadWorld("end")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("blobs are compressed", func(t *testing.T) {
		kv, _ := openTempKV(t)

		data := []byte{}
		for i := 0; i < 1000; i++ {
			data = append(data, "abcd"...)
		}
		require.NoError(t, kv.ReplaceWorld("overworld", []core.StoredProgram{{Name: "a", Data: data}}))

		kv.db.View(func(tx *bbolt.Tx) error {
			stored := tx.Bucket(BBOLT_WORLDS_BUCKET).Bucket([]byte("overworld")).Get(programKey(0, "a"))
			assert.Less(t, len(stored), len(data)/10)
			return nil
		})
	})

	t.Run("corrupted entry", func(t *testing.T) {
		kv, _ := openTempKV(t)
		require.NoError(t, kv.ReplaceWorld("overworld", []core.StoredProgram{{Name: "a", Data: []byte("1")}}))

		err := kv.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(BBOLT_WORLDS_BUCKET).Bucket([]byte("overworld")).Put(programKey(0, "a"), []byte("not zstd"))
		})
		require.NoError(t, err)

		_, err = kv.LoadWorld("overworld")
		assert.ErrorIs(t, err, ErrCorruptedEntry)
	})

	t.Run("reopen", func(t *testing.T) {
		kv, path := openTempKV(t)
		require.NoError(t, kv.ReplaceWorld("overworld", []core.StoredProgram{{Name: "a", Data: []byte("1")}}))
		require.NoError(t, kv.Close())

		_, err := kv.LoadWorld("overworld")
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.NoError(t, kv.Close())

		reopened, err := OpenSingleFileKV(KvStoreConfig{Path: path})
		require.NoError(t, err)
		defer reopened.Close()

		version, err := reopened.FormatVersion()
		require.NoError(t, err)
		assert.Equal(t, FORMAT_VERSION, version.String())

		loaded, err := reopened.LoadWorld("overworld")
		require.NoError(t, err)
		assert.Equal(t, []core.StoredProgram{{Name: "a", Data: []byte("1")}}, loaded)
	})

	t.Run("unsupported format version", func(t *testing.T) {
		kv, path := openTempKV(t)
		err := kv.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(BBOLT_META_BUCKET).Put(FORMAT_VERSION_KEY, []byte("2.1.0"))
		})
		require.NoError(t, err)
		require.NoError(t, kv.Close())

		_, err = OpenSingleFileKV(KvStoreConfig{Path: path})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("compatible format version", func(t *testing.T) {
		kv, path := openTempKV(t)
		err := kv.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(BBOLT_META_BUCKET).Put(FORMAT_VERSION_KEY, []byte("1.3.0"))
		})
		require.NoError(t, err)
		require.NoError(t, kv.Close())

		reopened, err := OpenSingleFileKV(KvStoreConfig{Path: path})
		require.NoError(t, err)
		reopened.Close()
	})
}

func TestProgramPersistence(t *testing.T) {
	testconfig.AllowParallelization(t)

	//x := 0; while true { x += 1; wait 3 }
	modules := core.ModuleMap{
		"main": {Statements: []ast.Statement{
			&ast.DeclareVariableStatement{NodeBase: ast.At(1, 1), Name: "x", Value: &ast.IntLiteral{Value: 0}},
			&ast.WhileLoopStatement{NodeBase: ast.At(2, 1), Condition: &ast.BooleanLiteral{Value: true}, Body: []ast.Statement{
				&ast.AssignVariableStatement{NodeBase: ast.At(3, 1), Name: "x", Operator: ast.AddAssign, Value: &ast.IntLiteral{Value: 1}},
				&ast.WaitStatement{NodeBase: ast.At(4, 1), Ticks: &ast.IntLiteral{Value: 3}},
			}},
		}},
	}

	kv, path := openTempKV(t)

	manager, err := core.NewProgramManager(core.ProgramManagerConfig{Loader: modules, Store: kv})
	require.NoError(t, err)
	_, err = manager.LoadProgram("main", "counter", false, []string{"a"})
	require.NoError(t, err)
	require.NoError(t, manager.RunProgram("counter"))

	manager.AdvanceAll() //x = 1, waiting 3 ticks
	manager.AdvanceAll()
	require.NoError(t, manager.Save())
	require.NoError(t, kv.Close())

	reopened, err := OpenSingleFileKV(KvStoreConfig{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	//the module loader is empty: the program is restored from its serialized tree.
	restoredManager, err := core.NewProgramManager(core.ProgramManagerConfig{Loader: core.ModuleMap{}, Store: reopened})
	require.NoError(t, err)
	assert.Equal(t, []string{"counter"}, restoredManager.LoadedPrograms())

	p, ok := restoredManager.GetProgram("counter")
	require.True(t, ok)
	assert.Equal(t, core.ProgramWaiting, p.Status())
	assert.Equal(t, []string{"a"}, p.Args())

	x := func() core.Value {
		v, err := p.GetVariable("x", false)
		require.NoError(t, err)
		return v
	}

	restoredManager.AdvanceAll()
	assert.Equal(t, core.Int(1), x())

	restoredManager.AdvanceAll()
	assert.Equal(t, core.Int(2), x())

	for i := 0; i < 3; i++ {
		restoredManager.AdvanceAll()
	}
	assert.Equal(t, core.Int(3), x())
}
