package deepzoom

import "testing"

func TestEncodeDecodeStoreReferenceOrbitRoundTrip(t *testing.T) {
	msg := StoreReferenceOrbit{
		OrbitID:    7,
		CRef:       F64Pair{Re: 0.25, Im: -0.1},
		Orbit:      []F64Pair{{Re: 0, Im: 0}, {Re: 0.25, Im: -0.1}},
		Derivative: []F64Pair{{Re: 0, Im: 0}, {Re: 1, Im: 0}},
		DcMax:      WithPrecision(1e-6, 128).MarshalWire(),
		BlaEnabled: true,
	}

	encoded, err := EncodeStoreReferenceOrbit(msg)
	if err != nil {
		t.Fatalf("EncodeStoreReferenceOrbit: %v", err)
	}
	decoded, err := DecodeStoreReferenceOrbit(encoded)
	if err != nil {
		t.Fatalf("DecodeStoreReferenceOrbit: %v", err)
	}
	if decoded.OrbitID != msg.OrbitID {
		t.Errorf("OrbitID = %d, want %d", decoded.OrbitID, msg.OrbitID)
	}
	if len(decoded.Orbit) != len(msg.Orbit) {
		t.Errorf("Orbit length = %d, want %d", len(decoded.Orbit), len(msg.Orbit))
	}
	if decoded.BlaEnabled != msg.BlaEnabled {
		t.Error("BlaEnabled lost across the round trip")
	}
}

func TestDecodeStoreReferenceOrbitRejectsGarbage(t *testing.T) {
	_, err := DecodeStoreReferenceOrbit([]byte("not snappy data"))
	if err == nil {
		t.Fatal("expected an error decoding garbage bytes")
	}
	if !Is(err, KindTileError) {
		t.Errorf("expected KindTileError, got %v", err)
	}
}

func TestEncodeMessagePlainJSON(t *testing.T) {
	raw, err := EncodeMessage(RequestWork{RenderID: 5})
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected nonempty JSON output")
	}
}
