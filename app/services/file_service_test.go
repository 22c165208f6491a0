package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/config"
)

func TestFileCreateMaintainsLedger(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 10_000)
	user, home := newTestUser(t, db, "ledger@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	file, err := svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "a.txt", Size: 4000, MimeType: "text/plain",
		StorageKey: "key-a", FolderID: home.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4000, file.Size)
	assert.EqualValues(t, 4000, storageUsed(t, db, user.ID))

	_, err = svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "b.txt", Size: 5000, MimeType: "text/plain",
		StorageKey: "key-b", FolderID: home.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 9000, storageUsed(t, db, user.ID))
}

func TestFileCreateQuotaExceeded(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 10_000)
	user, home := newTestUser(t, db, "quota@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "big.bin", Size: 9000, MimeType: "application/octet-stream",
		StorageKey: "key-big", FolderID: home.ID,
	})
	require.NoError(t, err)

	// 9000 + 2000 > 10000: rejected, and nothing changes.
	_, err = svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "extra.bin", Size: 2000, MimeType: "application/octet-stream",
		StorageKey: "key-extra", FolderID: home.ID,
	})
	assert.ErrorIs(t, err, services.ErrQuotaExceeded)
	assert.EqualValues(t, 9000, storageUsed(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.File{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the rejected create left no row")

	// An exact fit is allowed: usage may reach the limit, never pass it.
	_, err = svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "fit.bin", Size: 1000, MimeType: "application/octet-stream",
		StorageKey: "key-fit", FolderID: home.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10_000, storageUsed(t, db, user.ID))
}

func TestFileCreateSiblingConflict(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "fileconflict@example.com")

	svc := services.NewFileService(db, blobs)
	folderSvc := services.NewFolderService(db, blobs)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "notes.md", Size: 10, MimeType: "text/markdown",
		StorageKey: "key-1", FolderID: home.ID,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "notes.md", Size: 10, MimeType: "text/markdown",
		StorageKey: "key-2", FolderID: home.ID,
	})
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.EqualValues(t, 10, storageUsed(t, db, user.ID), "conflicting create charges nothing")

	// Same name in a different folder is allowed.
	other, err := folderSvc.Create(ctx, user.ID, "Other", &home.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "notes.md", Size: 10, MimeType: "text/markdown",
		StorageKey: "key-3", FolderID: other.ID,
	})
	assert.NoError(t, err)
}

func TestFileCreateInForeignFolder(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	_, ownerHome := newTestUser(t, db, "owner@example.com")
	intruder, _ := newTestUser(t, db, "intruder2@example.com")

	svc := services.NewFileService(db, blobs)
	_, err := svc.Create(context.Background(), intruder.ID, services.CreateFileInput{
		Name: "sneaky.txt", Size: 10, MimeType: "text/plain",
		StorageKey: "key-sneaky", FolderID: ownerHome.ID,
	})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestFileDelete(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "filedelete@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	file, err := svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "gone.txt", Size: 1234, MimeType: "text/plain",
		StorageKey: "key-gone", FolderID: home.ID,
	})
	require.NoError(t, err)

	result, err := svc.Delete(ctx, user.ID, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "gone.txt", result.Name)
	assert.EqualValues(t, 1234, result.Size)
	assert.Equal(t, []string{"key-gone"}, blobs.deleted())
	assert.EqualValues(t, 0, storageUsed(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.File{}).Where("id = ?", file.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFileDeleteAbortsWhenBlobStoreFails(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "fileabort@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	file, err := svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "stays.txt", Size: 500, MimeType: "text/plain",
		StorageKey: "key-stays", FolderID: home.ID,
	})
	require.NoError(t, err)

	blobs.FailDeletes = true

	// Single-file delete is strict: blob failure aborts before metadata work.
	_, err = svc.Delete(ctx, user.ID, file.ID)
	assert.ErrorIs(t, err, services.ErrInternal)

	var count int64
	require.NoError(t, db.Model(&models.File{}).Where("id = ?", file.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "row survives a failed blob delete")
	assert.EqualValues(t, 500, storageUsed(t, db, user.ID), "ledger unchanged")
}

func TestFileDeleteNotFound(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, _ := newTestUser(t, db, "missing@example.com")

	svc := services.NewFileService(db, blobs)
	_, err := svc.Delete(context.Background(), user.ID, 9999)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, blobs.deleted())
}

func TestFileUpload(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "upload@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	content := strings.NewReader("hello drive")
	file, err := svc.Upload(ctx, user.ID, home.ID, "hello.txt", "text/plain", int64(content.Len()), content)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", file.Name)
	assert.NotEmpty(t, file.StorageKey)
	assert.Equal(t, blobs.URL(file.StorageKey), file.URL)
	assert.EqualValues(t, 11, storageUsed(t, db, user.ID))
}

func TestFileUploadOverSizeCap(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	user, home := newTestUser(t, db, "uploadcap@example.com")

	config.Set("MAX_FILE_SIZE", "100")
	t.Cleanup(func() { config.Set("MAX_FILE_SIZE", "") })

	svc := services.NewFileService(db, blobs)
	_, err := svc.Upload(context.Background(), user.ID, home.ID,
		"huge.bin", "application/octet-stream", 101, strings.NewReader(strings.Repeat("x", 101)))
	assert.ErrorIs(t, err, services.ErrQuotaExceeded)
	assert.Empty(t, blobs.objects, "nothing reached the store")
}

func TestFileUploadCleansUpBlobOnConflict(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "uploadconflict@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	_, err := svc.Upload(ctx, user.ID, home.ID, "dup.txt", "text/plain", 3, strings.NewReader("one"))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, user.ID, home.ID, "dup.txt", "text/plain", 3, strings.NewReader("two"))
	assert.ErrorIs(t, err, services.ErrConflict)

	assert.Len(t, blobs.objects, 1, "the second upload's blob was removed again")
	assert.EqualValues(t, 3, storageUsed(t, db, user.ID))
}

func TestFileRename(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "filerename@example.com")

	svc := services.NewFileService(db, blobs)
	ctx := context.Background()

	a, err := svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "a.txt", Size: 1, MimeType: "text/plain", StorageKey: "key-ra", FolderID: home.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "b.txt", Size: 1, MimeType: "text/plain", StorageKey: "key-rb", FolderID: home.ID,
	})
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, user.ID, a.ID, "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", renamed.Name)

	_, err = svc.Rename(ctx, user.ID, a.ID, "b.txt")
	assert.ErrorIs(t, err, services.ErrConflict)
}
