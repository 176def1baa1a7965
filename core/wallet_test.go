package core

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSlateUnmarshalKeepsRaw(t *testing.T) {
	raw := []byte(`{"ver":"4:3","id":"0436430c-2b02-624c-2032-570501212b00","sta":"S1","amt":"5100000000","sigs":[{"nonce":"deadbeef"}]}`)

	var slate Slate
	if err := json.Unmarshal(raw, &slate); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if slate.ID != "0436430c-2b02-624c-2032-570501212b00" {
		t.Errorf("id = %q", slate.ID)
	}

	if slate.Sta != SlateStateSend1 {
		t.Errorf("sta = %q, want S1", slate.Sta)
	}

	if slate.Amt != 5_100_000_000 {
		t.Errorf("amt = %d", slate.Amt)
	}

	// Re-marshalling must reproduce the full original document, including
	// fields the exchange never inspects.
	out, err := json.Marshal(&slate)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !bytes.Equal(out, raw) {
		t.Errorf("marshal = %s, want original document", out)
	}
}

func TestSlateUnmarshalNoAmount(t *testing.T) {
	var slate Slate
	if err := json.Unmarshal([]byte(`{"id":"x","sta":"I1"}`), &slate); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if slate.Amt != 0 {
		t.Errorf("amt = %d, want 0", slate.Amt)
	}
}

func TestSlateUnmarshalBadAmount(t *testing.T) {
	var slate Slate
	if err := json.Unmarshal([]byte(`{"id":"x","sta":"S1","amt":"not-a-number"}`), &slate); err == nil {
		t.Error("expected an error for a malformed amt")
	}
}

func TestTransferStatusTextRoundTrip(t *testing.T) {
	for _, status := range []TransferStatus{
		TransferStatusAwaitingSignature,
		TransferStatusAwaitingConfirmation,
		TransferStatusFinished,
		TransferStatusCanceled,
	} {
		b, err := status.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", status, err)
		}

		var got TransferStatus
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}

		if got != status {
			t.Errorf("round trip of %v = %v", status, got)
		}
	}

	var s TransferStatus
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected an error for an unknown status")
	}
}
