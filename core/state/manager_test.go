package state

import (
	"errors"
	"math/big"
	"testing"

	"tokensale/core/events"
	"tokensale/core/types"
	"tokensale/storage"
)

type record struct {
	Name   string
	Amount *big.Int
}

func TestUpdateCommitsWritesAndEvents(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	rec := events.NewRecorder()
	mgr.SetEmitter(rec)

	err := mgr.Update(func(tx *Tx) error {
		if err := tx.KVPut([]byte("sale/record"), record{Name: "alpha", Amount: big.NewInt(42)}); err != nil {
			return err
		}
		var got record
		ok, err := tx.KVGet([]byte("sale/record"), &got)
		if err != nil || !ok {
			t.Fatalf("read own write: ok=%v err=%v", ok, err)
		}
		tx.AppendEvent(&types.Event{Type: "test.written", Attributes: map[string]string{"name": got.Name}})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	var stored record
	err = mgr.View(func(tx *Tx) error {
		ok, err := tx.KVGet([]byte("sale/record"), &stored)
		if !ok {
			t.Fatalf("expected record to exist")
		}
		return err
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if stored.Name != "alpha" || stored.Amount.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected record %+v", stored)
	}
	if got := rec.Types(); len(got) != 1 || got[0] != "test.written" {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	rec := events.NewRecorder()
	mgr.SetEmitter(rec)

	boom := errors.New("boom")
	err := mgr.Update(func(tx *Tx) error {
		if err := tx.KVPut([]byte("k"), uint64(7)); err != nil {
			return err
		}
		tx.AppendEvent(&types.Event{Type: "never"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	_ = mgr.View(func(tx *Tx) error {
		ok, err := tx.KVGet([]byte("k"), nil)
		if err != nil || ok {
			t.Fatalf("write leaked after rollback: ok=%v err=%v", ok, err)
		}
		return nil
	})
	if len(rec.Events()) != 0 {
		t.Fatalf("events leaked after rollback: %v", rec.Types())
	}
}

func TestDeleteAndList(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	err := mgr.Update(func(tx *Tx) error {
		if err := tx.KVAppend([]byte("list"), []byte{1}); err != nil {
			return err
		}
		if err := tx.KVAppend([]byte("list"), []byte{1}); err != nil {
			return err
		}
		if err := tx.KVAppend([]byte("list"), []byte{2}); err != nil {
			return err
		}
		if err := tx.KVPut([]byte("gone"), uint64(1)); err != nil {
			return err
		}
		return tx.KVDelete([]byte("gone"))
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	_ = mgr.View(func(tx *Tx) error {
		var list [][]byte
		if err := tx.KVGetList([]byte("list"), &list); err != nil {
			t.Fatalf("get list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected deduplicated list, got %d entries", len(list))
		}
		var empty []uint64
		if err := tx.KVGetList([]byte("missing"), &empty); err != nil {
			t.Fatalf("missing list: %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Fatalf("expected empty non-nil slice")
		}
		if ok, _ := tx.KVGet([]byte("gone"), nil); ok {
			t.Fatalf("expected deleted key to be absent")
		}
		return nil
	})
}

func TestViewRejectsWrites(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	err := mgr.View(func(tx *Tx) error {
		return tx.KVPut([]byte("k"), uint64(1))
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}
