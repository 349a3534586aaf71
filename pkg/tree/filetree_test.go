package tree

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = DefaultRootPath

func seeded() Tree {
	return Seed(root, DefaultRootName)
}

// sequentialIDs makes node IDs deterministic for the duration of a test.
func sequentialIDs(t *testing.T) {
	t.Helper()
	prev := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = prev })
}

func TestCreate(t *testing.T) {
	t.Run("AppendsAsLastChild", func(t *testing.T) {
		sequentialIDs(t)
		orig := seeded()

		next, node, err := orig.Create(root, "app.py", KindFile)
		require.NoError(t, err)
		require.NotNil(t, node)

		assert.Equal(t, root+"/app.py", node.Path)
		assert.Equal(t, "id-1", node.ID)
		assert.Same(t, node, next.Find(root+"/app.py"))

		children := next.Root().Children
		assert.Equal(t, "app.py", children[len(children)-1].Name)
		assert.Len(t, orig.Root().Children, 3, "receiver must be unchanged")
		assert.NoError(t, Validate(next.Root(), root))
	})

	t.Run("NestedDirectory", func(t *testing.T) {
		next, dir, err := seeded().Create(root+"/utils", "lib", KindDirectory)
		require.NoError(t, err)
		assert.True(t, dir.IsDir())
		assert.Empty(t, dir.Children)

		next, file, err := next.Create(dir.Path, "x.py", KindFile)
		require.NoError(t, err)
		assert.Equal(t, root+"/utils/lib/x.py", file.Path)
		assert.Equal(t, "", file.Content)
		assert.NoError(t, Validate(next.Root(), root))
	})

	t.Run("DuplicateNameLeavesTreeUnchanged", func(t *testing.T) {
		orig := seeded()
		for _, kind := range []Kind{KindFile, KindDirectory} {
			next, node, err := orig.Create(root, "main.py", kind)
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrNameConflict))
			assert.Nil(t, node)
			assert.Same(t, orig.Root(), next.Root())
		}
	})

	t.Run("NamesAreCaseSensitive", func(t *testing.T) {
		_, _, err := seeded().Create(root, "Main.py", KindFile)
		assert.NoError(t, err)
	})

	t.Run("ParentNotFound", func(t *testing.T) {
		_, _, err := seeded().Create(root+"/missing", "a", KindFile)
		assert.True(t, IsCode(err, ErrParentNotFound))
	})

	t.Run("ParentIsFile", func(t *testing.T) {
		_, _, err := seeded().Create(root+"/main.py", "a", KindFile)
		assert.True(t, IsCode(err, ErrParentNotFound))
	})

	t.Run("InvalidNames", func(t *testing.T) {
		for _, name := range []string{"", ".", "..", "a/b", "/"} {
			_, _, err := seeded().Create(root, name, KindFile)
			assert.True(t, IsCode(err, ErrInvalidName), "name %q", name)
		}
	})

	t.Run("FindReturnsCreatedNode", func(t *testing.T) {
		tr := seeded()
		for i := 0; i < 20; i++ {
			name := fmt.Sprintf("f%02d.txt", i)
			var node *Node
			var err error
			tr, node, err = tr.Create(root+"/utils", name, KindFile)
			require.NoError(t, err)
			assert.Same(t, node, FindByPath(tr.Root(), ChildPath(root+"/utils", name)))
		}
	})
}

func TestCreate_SharesUntouchedSubtrees(t *testing.T) {
	orig := seeded()
	next, _, err := orig.Create(root+"/utils", "new.py", KindFile)
	require.NoError(t, err)

	assert.NotSame(t, orig.Root(), next.Root())
	assert.NotSame(t, orig.Find(root+"/utils"), next.Find(root+"/utils"))
	assert.Same(t, orig.Find(root+"/main.py"), next.Find(root+"/main.py"))
	assert.Same(t, orig.Find(root+"/requirements.txt"), next.Find(root+"/requirements.txt"))
	assert.Same(t, orig.Find(root+"/utils/config.json"), next.Find(root+"/utils/config.json"))
}

func TestUpdateContent(t *testing.T) {
	t.Run("ReplacesContentKeepsID", func(t *testing.T) {
		orig := seeded()
		before := orig.Find(root + "/main.py")

		next := orig.UpdateContent(root+"/main.py", "print('hi')")
		after := next.Find(root + "/main.py")

		assert.Equal(t, "print('hi')", after.Content)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Path, after.Path)
		assert.NotEqual(t, "print('hi')", before.Content)
	})

	t.Run("MissingPathIsNoop", func(t *testing.T) {
		orig := seeded()
		next := orig.UpdateContent(root+"/gone.py", "x")
		assert.Same(t, orig.Root(), next.Root())
	})

	t.Run("DirectoryIsNoop", func(t *testing.T) {
		orig := seeded()
		next := orig.UpdateContent(root+"/utils", "x")
		assert.Same(t, orig.Root(), next.Root())
		assert.Equal(t, "", next.Find(root+"/utils").Content)
	})
}

func TestDeleteMany(t *testing.T) {
	t.Run("DirectoryTakesSubtree", func(t *testing.T) {
		tr := seeded()
		var err error
		tr, _, err = tr.Create(root+"/utils", "a.py", KindFile)
		require.NoError(t, err)
		tr, _, err = tr.Create(root+"/utils", "sub", KindDirectory)
		require.NoError(t, err)
		// utils now holds config.json, a.py, sub: three descendants.

		next, removed := tr.DeleteMany([]string{root + "/utils"})
		assert.Equal(t, []string{
			root + "/utils",
			root + "/utils/config.json",
			root + "/utils/a.py",
			root + "/utils/sub",
		}, removed)
		assert.Equal(t, tr.Len()-4, next.Len())
		assert.Nil(t, next.Find(root+"/utils/a.py"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		set := []string{root + "/main.py", root + "/utils"}
		once, _ := seeded().DeleteMany(set)
		twice, removed := once.DeleteMany(set)

		assert.Equal(t, once.Paths(), twice.Paths())
		assert.Same(t, once.Root(), twice.Root())
		assert.Empty(t, removed)
	})

	t.Run("NamedDescendantOfNamedDirectoryReportedOnce", func(t *testing.T) {
		_, removed := seeded().DeleteMany([]string{root + "/utils/config.json", root + "/utils"})
		assert.Equal(t, []string{root + "/utils", root + "/utils/config.json"}, removed)
	})

	t.Run("RootPathClearsChildren", func(t *testing.T) {
		next, removed := seeded().DeleteMany([]string{root})
		assert.Equal(t, []string{root}, next.Paths())
		assert.Len(t, removed, 4)
		assert.NotContains(t, removed, root)
	})

	t.Run("UnknownPathsIgnored", func(t *testing.T) {
		orig := seeded()
		next, removed := orig.DeleteMany([]string{"/elsewhere", root + "/nope"})
		assert.Same(t, orig.Root(), next.Root())
		assert.Empty(t, removed)
	})

	t.Run("PrefixIsNotAncestor", func(t *testing.T) {
		tr, _, err := seeded().Create(root, "utils2", KindDirectory)
		require.NoError(t, err)
		next, _ := tr.DeleteMany([]string{root + "/utils"})
		assert.NotNil(t, next.Find(root+"/utils2"))
	})
}

func TestBulkImport(t *testing.T) {
	t.Run("SkipsExistingName", func(t *testing.T) {
		orig := seeded()
		next, report, err := orig.BulkImport(root, []Candidate{
			{Name: "main.py", Content: "dup"},
			{Name: "bot.py", Content: "print(1)"},
		}, 1<<20)
		require.NoError(t, err)

		assert.Equal(t, orig.Len()+1, next.Len())
		require.Len(t, report.Added, 1)
		assert.Equal(t, "bot.py", report.Added[0].Name)
		assert.Equal(t, []Skipped{{Name: "main.py", Reason: ErrNameConflict}}, report.Skipped)
		assert.NotEqual(t, "dup", next.Find(root+"/main.py").Content)
	})

	t.Run("OversizeSkipped", func(t *testing.T) {
		next, report, err := seeded().BulkImport(root, []Candidate{
			{Name: "big.bin", Content: strings.Repeat("x", 11)},
			{Name: "ok.txt", Content: strings.Repeat("x", 10)},
		}, 10)
		require.NoError(t, err)
		assert.Nil(t, next.Find(root+"/big.bin"))
		assert.NotNil(t, next.Find(root+"/ok.txt"))
		assert.Equal(t, []Skipped{{Name: "big.bin", Reason: ErrOversizeUpload}}, report.Skipped)
	})

	t.Run("NonPositiveLimitIsUnlimited", func(t *testing.T) {
		_, report, err := seeded().BulkImport(root, []Candidate{{Name: "a", Content: "abc"}}, 0)
		require.NoError(t, err)
		assert.Len(t, report.Added, 1)
	})

	t.Run("DuplicateWithinBatch", func(t *testing.T) {
		next, report, err := seeded().BulkImport(root, []Candidate{
			{Name: "a.txt", Content: "first"},
			{Name: "a.txt", Content: "second"},
		}, 0)
		require.NoError(t, err)
		assert.Equal(t, "first", next.Find(root+"/a.txt").Content)
		assert.Equal(t, []Skipped{{Name: "a.txt", Reason: ErrNameConflict}}, report.Skipped)
		assert.NoError(t, Validate(next.Root(), root))
	})

	t.Run("InvalidNameSkipped", func(t *testing.T) {
		_, report, err := seeded().BulkImport(root, []Candidate{{Name: "../x"}}, 0)
		require.NoError(t, err)
		assert.Equal(t, []Skipped{{Name: "../x", Reason: ErrInvalidName}}, report.Skipped)
	})

	t.Run("MissingParentAborts", func(t *testing.T) {
		orig := seeded()
		next, report, err := orig.BulkImport(root+"/nope", []Candidate{{Name: "a"}}, 0)
		assert.True(t, IsCode(err, ErrParentNotFound))
		assert.Same(t, orig.Root(), next.Root())
		assert.Empty(t, report.Added)
	})

	t.Run("AllSkippedReturnsReceiver", func(t *testing.T) {
		orig := seeded()
		next, _, err := orig.BulkImport(root, []Candidate{{Name: "main.py"}}, 0)
		require.NoError(t, err)
		assert.Same(t, orig.Root(), next.Root())
	})
}

func TestMove(t *testing.T) {
	t.Run("RegeneratesDescendantPaths", func(t *testing.T) {
		tr, _, err := seeded().Create(root, "lib", KindDirectory)
		require.NoError(t, err)
		before := tr.Find(root + "/utils/config.json")

		next, err := tr.Move(root+"/utils", root+"/lib")
		require.NoError(t, err)

		moved := next.Find(root + "/lib/utils/config.json")
		require.NotNil(t, moved)
		assert.Equal(t, before.ID, moved.ID)
		assert.Nil(t, next.Find(root+"/utils"))
		assert.NoError(t, Validate(next.Root(), root))
	})

	t.Run("IntoItselfIsCycle", func(t *testing.T) {
		_, err := seeded().Move(root+"/utils", root+"/utils")
		assert.True(t, IsCode(err, ErrCycle))
	})

	t.Run("IntoDescendantIsCycle", func(t *testing.T) {
		tr, _, err := seeded().Create(root+"/utils", "inner", KindDirectory)
		require.NoError(t, err)
		_, err = tr.Move(root+"/utils", root+"/utils/inner")
		assert.True(t, IsCode(err, ErrCycle))
	})

	t.Run("Errors", func(t *testing.T) {
		tr := seeded()
		_, err := tr.Move(root, root+"/utils")
		assert.True(t, IsCode(err, ErrRootImmutable))

		_, err = tr.Move(root+"/nope", root+"/utils")
		assert.True(t, IsCode(err, ErrNotFound))

		_, err = tr.Move(root+"/main.py", root+"/requirements.txt")
		assert.True(t, IsCode(err, ErrParentNotFound))

		conflict, _, err := tr.Create(root+"/utils", "main.py", KindFile)
		require.NoError(t, err)
		_, err = conflict.Move(root+"/main.py", root+"/utils")
		assert.True(t, IsCode(err, ErrNameConflict))
	})

	t.Run("SameParentIsNoop", func(t *testing.T) {
		orig := seeded()
		next, err := orig.Move(root+"/main.py", root)
		require.NoError(t, err)
		assert.Same(t, orig.Root(), next.Root())
	})
}

func TestRename(t *testing.T) {
	t.Run("KeepsPosition", func(t *testing.T) {
		next, err := seeded().Rename(root+"/utils", "helpers")
		require.NoError(t, err)

		children := next.Root().Children
		assert.Equal(t, "helpers", children[2].Name)
		assert.NotNil(t, next.Find(root+"/helpers/config.json"))
		assert.Equal(t, "4", next.Find(root+"/helpers/config.json").ID)
		assert.NoError(t, Validate(next.Root(), root))
	})

	t.Run("Errors", func(t *testing.T) {
		tr := seeded()
		_, err := tr.Rename(root+"/main.py", "requirements.txt")
		assert.True(t, IsCode(err, ErrNameConflict))

		_, err = tr.Rename(root, "x")
		assert.True(t, IsCode(err, ErrRootImmutable))

		_, err = tr.Rename(root+"/nope", "x")
		assert.True(t, IsCode(err, ErrNotFound))

		_, err = tr.Rename(root+"/main.py", "a/b")
		assert.True(t, IsCode(err, ErrInvalidName))
	})

	t.Run("SameNameIsNoop", func(t *testing.T) {
		orig := seeded()
		next, err := orig.Rename(root+"/main.py", "main.py")
		require.NoError(t, err)
		assert.Same(t, orig.Root(), next.Root())
	})
}

func TestSeed(t *testing.T) {
	tr := seeded()
	require.NoError(t, Validate(tr.Root(), root))
	assert.Equal(t, []string{
		root,
		root + "/main.py",
		root + "/requirements.txt",
		root + "/utils",
		root + "/utils/config.json",
	}, tr.Paths())
	assert.Equal(t, "discord.py-self\nPyNaCl\nrequests", tr.Find(root+"/requirements.txt").Content)
}
