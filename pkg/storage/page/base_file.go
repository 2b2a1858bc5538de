package page

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
)

// BaseFile provides page-granular I/O on a single file. Page n lives at
// offset n*Size(). The file only ever grows, by whole-page appends.
type BaseFile struct {
	file     *os.File
	fileID   primitives.TableID
	mutex    sync.RWMutex
	filePath primitives.Filepath
}

// NewBaseFile opens (creating if needed) the file at filePath. The table id
// is derived from the absolute path.
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath == "" {
		return nil, errors.New("filePath cannot be empty")
	}

	file, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %s", filePath)
	}

	return &BaseFile{
		file:     file,
		fileID:   filePath.Hash(),
		filePath: filePath,
	}, nil
}

func (bf *BaseFile) GetID() primitives.TableID {
	return bf.fileID
}

func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns ceil(fileLength / Size()).
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	return bf.numPagesLocked()
}

func (bf *BaseFile) numPagesLocked() (primitives.PageNumber, error) {
	if bf.file == nil {
		return 0, errors.New("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, ioError(err, "failed to stat file %s", bf.filePath)
	}

	size := int64(Size())
	numPages := fileInfo.Size() / size
	if fileInfo.Size()%size != 0 {
		numPages++
	}

	return primitives.PageNumber(numPages), nil // #nosec G115
}

// ReadPageData reads the window of page pageNo. A short final page returns
// only the bytes present on disk; a page at or past the end of the file is an
// addressing error.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	numPages, err := bf.numPagesLocked()
	if err != nil {
		return nil, err
	}
	if pageNo >= numPages {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "PAGE_OUT_OF_RANGE", dberror.ErrAddressing,
			"page %d does not exist (file has %d pages)", pageNo, numPages).At("ReadPageData", "BaseFile")
	}

	offset := int64(pageNo) * int64(Size()) // #nosec G115
	pageData := make([]byte, Size())

	n, err := bf.file.ReadAt(pageData, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioError(err, "failed to read page %d of %s", pageNo, bf.filePath)
	}
	return pageData[:n], nil
}

// WritePageData writes a full page image at its offset and syncs.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return errors.New("file is closed")
	}

	if len(pageData) != Size() {
		return errors.Errorf("invalid page data size: expected %d, got %d", Size(), len(pageData))
	}

	offset := int64(pageNo) * int64(Size()) // #nosec G115

	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return ioError(err, "failed to write page %d of %s", pageNo, bf.filePath)
	}

	if err := bf.file.Sync(); err != nil {
		return ioError(err, "failed to sync %s", bf.filePath)
	}

	return nil
}

// AllocateNewPage appends an all-zero page to the file and returns its
// number. The page is on disk before this returns.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	allocatedPageNo, err := bf.numPagesLocked()
	if err != nil {
		return 0, err
	}

	zeroPage := make([]byte, Size())
	offset := int64(allocatedPageNo) * int64(Size()) // #nosec G115

	if _, err := bf.file.WriteAt(zeroPage, offset); err != nil {
		return 0, ioError(err, "failed to reserve page space in %s", bf.filePath)
	}

	if err := bf.file.Sync(); err != nil {
		return 0, ioError(err, "failed to sync %s after page allocation", bf.filePath)
	}

	return allocatedPageNo, nil
}

func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}

// ioError tags err with dberror.ErrIO and records the call stack.
func ioError(err error, format string, args ...any) error {
	return errors.Wrapf(fmt.Errorf("%w: %w", dberror.ErrIO, err), format, args...)
}
