package up

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"data":{"attributes":{"eventType":"PING"}}}`)
	sig := Sign("topsecret", body)

	if !VerifySignature("topsecret", body, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"data":{}}`)
	sig := Sign("topsecret", body)

	if VerifySignature("topsecret", []byte(`{"data":{"x":1}}`), sig) {
		t.Fatal("tampered body must not verify")
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"data":{}}`)
	sig := Sign("topsecret", body)

	if VerifySignature("othersecret", body, sig) {
		t.Fatal("wrong secret must not verify")
	}
}

func TestVerifySignatureRejectsMalformedHex(t *testing.T) {
	if VerifySignature("topsecret", []byte(`{}`), "not-hex") {
		t.Fatal("malformed hex must not verify")
	}
}
