package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/services"
)

// seedTree builds the canonical demo tree via the file service so the quota
// ledger is maintained the same way production writes are:
//
//	Home
//	└── Docs            (report.pdf, 1000 bytes)
//	    └── Old         (archive.zip, 500 bytes)
func seedTree(t *testing.T, db *gorm.DB, blobs *fakeBlobStore) (user models.User, docs, old models.Folder) {
	t.Helper()
	setQuotaLimit(t, 1<<30)

	var home models.Folder
	user, home = newTestUser(t, db, "tree@example.com")

	folderSvc := services.NewFolderService(db, blobs)
	fileSvc := services.NewFileService(db, blobs)
	ctx := context.Background()

	var err error
	docs, err = folderSvc.Create(ctx, user.ID, "Docs", &home.ID)
	require.NoError(t, err)
	old, err = folderSvc.Create(ctx, user.ID, "Old", &docs.ID)
	require.NoError(t, err)

	_, err = fileSvc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "report.pdf", Size: 1000, MimeType: "application/pdf",
		StorageKey: "key-report", FolderID: docs.ID,
	})
	require.NoError(t, err)
	_, err = fileSvc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "archive.zip", Size: 500, MimeType: "application/zip",
		StorageKey: "key-archive", FolderID: old.ID,
	})
	require.NoError(t, err)

	require.EqualValues(t, 1500, storageUsed(t, db, user.ID))
	return user, docs, old
}

func TestFolderStats(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, docs, old := seedTree(t, db, blobs)

	svc := services.NewFolderService(db, blobs)
	ctx := context.Background()

	stats, err := svc.Stats(ctx, user.ID, docs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SubFolderCount, "Old is the only folder below Docs")
	assert.EqualValues(t, 2, stats.FileCount, "both files are in scope")

	stats, err = svc.Stats(ctx, user.ID, old.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SubFolderCount)
	assert.EqualValues(t, 1, stats.FileCount)
}

func TestFolderDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, docs, old := seedTree(t, db, blobs)

	svc := services.NewFolderService(db, blobs)
	result, err := svc.Delete(context.Background(), user.ID, docs.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, result.DeletedFiles)
	assert.Equal(t, 2, result.DeletedFolders, "Docs itself plus Old")
	assert.EqualValues(t, 1500, result.FreedSpace)

	// Both blobs were handed to the store in the batch delete.
	assert.ElementsMatch(t, []string{"key-report", "key-archive"}, blobs.deleted())

	// The service deleted only the Docs row; Old and the files must be gone
	// through the database cascade.
	var folders int64
	require.NoError(t, db.Model(&models.Folder{}).
		Where("id IN ?", []uint{docs.ID, old.ID}).Count(&folders).Error)
	assert.Zero(t, folders)

	var files int64
	require.NoError(t, db.Model(&models.File{}).Where("user_id = ?", user.ID).Count(&files).Error)
	assert.Zero(t, files)

	assert.EqualValues(t, 0, storageUsed(t, db, user.ID), "ledger returns to zero")

	// Home survives.
	var home models.Folder
	require.NoError(t, db.Where("user_id = ? AND parent_id IS NULL", user.ID).First(&home).Error)
}

func TestFolderDeleteEmptyFolder(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, home := newTestUser(t, db, "empty@example.com")

	svc := services.NewFolderService(db, blobs)
	ctx := context.Background()

	folder, err := svc.Create(ctx, user.ID, "Scratch", &home.ID)
	require.NoError(t, err)

	result, err := svc.Delete(ctx, user.ID, folder.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, result.DeletedFiles)
	assert.Equal(t, 1, result.DeletedFolders)
	assert.EqualValues(t, 0, result.FreedSpace)
	assert.Empty(t, blobs.deleted(), "no blob call for an empty subtree")
}

func TestFolderDeleteProceedsWhenBlobStoreFails(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, docs, _ := seedTree(t, db, blobs)

	blobs.FailDeletes = true

	svc := services.NewFolderService(db, blobs)
	result, err := svc.Delete(context.Background(), user.ID, docs.ID)
	require.NoError(t, err, "a refusing blob store must not abort folder deletion")

	assert.EqualValues(t, 2, result.DeletedFiles)
	assert.EqualValues(t, 1500, result.FreedSpace)

	var files int64
	require.NoError(t, db.Model(&models.File{}).Where("user_id = ?", user.ID).Count(&files).Error)
	assert.Zero(t, files, "metadata cleanup completes despite the blob failure")
	assert.EqualValues(t, 0, storageUsed(t, db, user.ID))
}

func TestFolderDeleteHomeForbidden(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, home := newTestUser(t, db, "root@example.com")

	svc := services.NewFolderService(db, blobs)
	_, err := svc.Delete(context.Background(), user.ID, home.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	var count int64
	require.NoError(t, db.Model(&models.Folder{}).Where("id = ?", home.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFolderDeleteRollsBackOnLedgerUnderflow(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, docs, old := seedTree(t, db, blobs)

	// Corrupt the ledger below the subtree total: the decrement guard fails,
	// the transaction aborts, and every row must survive.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("storage_used", 100).Error)

	svc := services.NewFolderService(db, blobs)
	_, err := svc.Delete(context.Background(), user.ID, docs.ID)
	assert.ErrorIs(t, err, services.ErrInternal)

	var folders int64
	require.NoError(t, db.Model(&models.Folder{}).
		Where("id IN ?", []uint{docs.ID, old.ID}).Count(&folders).Error)
	assert.EqualValues(t, 2, folders, "row deletes rolled back")

	var files int64
	require.NoError(t, db.Model(&models.File{}).Where("user_id = ?", user.ID).Count(&files).Error)
	assert.EqualValues(t, 2, files)

	assert.EqualValues(t, 100, storageUsed(t, db, user.ID), "ledger untouched by the failed delete")
}

func TestFolderDeleteOfOtherUsersFolder(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	owner, docs, _ := seedTree(t, db, blobs)
	intruder, _ := newTestUser(t, db, "intruder@example.com")

	svc := services.NewFolderService(db, blobs)
	_, err := svc.Delete(context.Background(), intruder.ID, docs.ID)
	assert.ErrorIs(t, err, services.ErrNotFound, "not-owned reads as absent")

	_, err = svc.Stats(context.Background(), intruder.ID, docs.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.EqualValues(t, 1500, storageUsed(t, db, owner.ID))
}

func TestFolderCreateDefaultsToHome(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, home := newTestUser(t, db, "create@example.com")

	svc := services.NewFolderService(db, blobs)
	folder, err := svc.Create(context.Background(), user.ID, "Photos", nil)
	require.NoError(t, err)
	require.NotNil(t, folder.ParentID)
	assert.Equal(t, home.ID, *folder.ParentID)
}

func TestFolderCreateSiblingConflict(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, home := newTestUser(t, db, "conflict@example.com")

	svc := services.NewFolderService(db, blobs)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, "Photos", &home.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, "Photos", &home.ID)
	assert.ErrorIs(t, err, services.ErrConflict)

	// The same name in a different parent is fine.
	other, err := svc.Create(ctx, user.ID, "Other", &home.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, "Photos", &other.ID)
	assert.NoError(t, err)
}

func TestFolderRename(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, home := newTestUser(t, db, "rename@example.com")

	svc := services.NewFolderService(db, blobs)
	ctx := context.Background()

	folder, err := svc.Create(ctx, user.ID, "Photos", &home.ID)
	require.NoError(t, err)
	sibling, err := svc.Create(ctx, user.ID, "Videos", &home.ID)
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, user.ID, folder.ID, "Pictures")
	require.NoError(t, err)
	assert.Equal(t, "Pictures", renamed.Name)

	// Renaming onto an existing sibling name is a conflict.
	_, err = svc.Rename(ctx, user.ID, sibling.ID, "Pictures")
	assert.ErrorIs(t, err, services.ErrConflict)

	// Renaming to its own current name is not a self-collision.
	_, err = svc.Rename(ctx, user.ID, renamed.ID, "Pictures")
	assert.NoError(t, err)

	// Home cannot be renamed.
	_, err = svc.Rename(ctx, user.ID, home.ID, "NotHome")
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestFolderStatsMatchesDeleteOnDeepTree(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "deep@example.com")

	folderSvc := services.NewFolderService(db, blobs)
	fileSvc := services.NewFileService(db, blobs)
	ctx := context.Background()

	// A 40-level chain with one 10-byte file per level. Deep enough that a
	// call-recursive walker design would be in trouble long before this on
	// wider trees; the iterative walker does one query per level.
	const depth = 40
	top, err := folderSvc.Create(ctx, user.ID, "level-1", &home.ID)
	require.NoError(t, err)
	parent := top
	for i := 2; i <= depth; i++ {
		parent, err = folderSvc.Create(ctx, user.ID, fmt.Sprintf("level-%d", i), &parent.ID)
		require.NoError(t, err)
	}
	cursor := top
	for i := 1; i <= depth; i++ {
		_, err = fileSvc.Create(ctx, user.ID, services.CreateFileInput{
			Name: "blob.bin", Size: 10, MimeType: "application/octet-stream",
			StorageKey: fmt.Sprintf("deep-key-%d", i), FolderID: cursor.ID,
		})
		require.NoError(t, err)
		var child models.Folder
		if i < depth {
			require.NoError(t, db.Where("parent_id = ?", cursor.ID).First(&child).Error)
			cursor = child
		}
	}

	stats, err := folderSvc.Stats(ctx, user.ID, top.ID)
	require.NoError(t, err)
	assert.Equal(t, depth-1, stats.SubFolderCount)
	assert.EqualValues(t, depth, stats.FileCount)

	result, err := folderSvc.Delete(ctx, user.ID, top.ID)
	require.NoError(t, err)
	assert.EqualValues(t, stats.FileCount, result.DeletedFiles, "preview matches the delete")
	assert.Equal(t, stats.SubFolderCount+1, result.DeletedFolders)
	assert.EqualValues(t, depth*10, result.FreedSpace)
	assert.EqualValues(t, 0, storageUsed(t, db, user.ID))
}
