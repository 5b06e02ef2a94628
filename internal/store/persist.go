package store

import (
	"os"
	"sort"

	"codetree/internal/knowledge"
	"codetree/util"
)

// fileOp is one staged change inside a commit: a write when data is set, a
// delete when it is nil.
type fileOp struct {
	path string
	data []byte
}

// preImage remembers what a path held before the commit touched it.
type preImage struct {
	path    string
	data    []byte
	existed bool
}

// commit applies a set of file operations so that either all of them land or
// none remain visible. Each write goes through a temp-file rename; if a later
// step fails, already-applied steps are rolled back from their pre-images.
func (s *Store) commit(ops []fileOp) error {
	images := make([]preImage, 0, len(ops))
	for _, op := range ops {
		data, err := os.ReadFile(op.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return knowledge.IOFailuref(err, "failed to stage %s", op.path)
			}
			images = append(images, preImage{path: op.path, existed: false})
			continue
		}
		images = append(images, preImage{path: op.path, data: data, existed: true})
	}

	for i, op := range ops {
		var err error
		if op.data == nil {
			err = os.Remove(op.path)
		} else {
			err = writeAtomic(op.path, op.data)
		}
		if err != nil {
			s.rollback(images[:i])
			return knowledge.IOFailuref(err, "failed to persist %s", op.path)
		}
	}
	return nil
}

// rollback restores the pre-images of already-applied operations, newest
// first. Restore failures are logged; there is nothing better to do with a
// disk that refuses both the write and its undo.
func (s *Store) rollback(applied []preImage) {
	for i := len(applied) - 1; i >= 0; i-- {
		img := applied[i]
		var err error
		if img.existed {
			err = writeAtomic(img.path, img.data)
		} else {
			err = os.Remove(img.path)
			if os.IsNotExist(err) {
				err = nil
			}
		}
		if err != nil {
			s.logger.WithError(err).WithField("path", img.path).Warn("Rollback failed, tree may need a reload")
		}
	}
}

func writeAtomic(path string, data []byte) error {
	return util.WriteFileAtomic(path, data, 0644)
}

// stageMutation assembles the standard op list for a mutation: the primary
// element (written or deleted), every touched neighbor, and the metadata
// record. Neighbors are ordered by id so commits are deterministic.
func (s *Store) stageMutation(primaryID string, primary *knowledge.Element, touched map[string]*knowledge.Element, meta metadata) ([]fileOp, error) {
	ops := make([]fileOp, 0, len(touched)+2)

	if primary == nil {
		ops = append(ops, fileOp{path: s.elementPath(primaryID)})
	} else {
		data, err := marshalJSON(primary)
		if err != nil {
			return nil, knowledge.IOFailuref(err, "failed to encode element %q", primaryID)
		}
		ops = append(ops, fileOp{path: s.elementPath(primaryID), data: data})
	}

	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		data, err := marshalJSON(touched[id])
		if err != nil {
			return nil, knowledge.IOFailuref(err, "failed to encode element %q", id)
		}
		ops = append(ops, fileOp{path: s.elementPath(id), data: data})
	}

	metaData, err := marshalJSON(meta)
	if err != nil {
		return nil, knowledge.IOFailure(err, "failed to encode metadata")
	}
	ops = append(ops, fileOp{path: s.metadataPath(), data: metaData})

	return ops, nil
}

// applyMutation commits the staged ops and, on success, swaps the updated
// records into memory. Callers hold the write lock.
func (s *Store) applyMutation(primaryID string, primary *knowledge.Element, touched map[string]*knowledge.Element, meta metadata) error {
	ops, err := s.stageMutation(primaryID, primary, touched, meta)
	if err != nil {
		return err
	}
	if err := s.commit(ops); err != nil {
		return err
	}

	if primary == nil {
		delete(s.elements, primaryID)
	} else {
		s.elements[primaryID] = primary
	}
	for id, elem := range touched {
		s.elements[id] = elem
	}
	s.meta = meta
	return nil
}

// nextMeta returns the metadata record for a mutation that leaves count
// elements in the tree.
func (s *Store) nextMeta(count int) metadata {
	meta := s.meta
	meta.ElementCount = count
	meta.UpdatedAt = now()
	return meta
}
