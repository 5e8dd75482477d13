package policyopa

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tecpd/internal/domain"
)

const testPolicy = `package tecp.policy

known_policies := {"no_retention", "eu_region"}

deny[entry] {
	id := input.policy_ids[_]
	not known_policies[id]
	entry := {"code": "E-POLICY-001", "policy_id": id}
}

deny[entry] {
	not input.verification.valid
	entry := {"code": "E-POLICY-003", "message": "receipt did not verify"}
}

result := {"allow": count(deny) == 0, "deny": deny}
`

func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.rego")
	if err := os.WriteFile(path, []byte(testPolicy), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return dir
}

func TestEngine_AllowsKnownPolicies(t *testing.T) {
	engine, err := NewEngineFromBundlePath(context.Background(), writeBundle(t), "test-bundle")
	if err != nil {
		t.Fatalf("load engine: %v", err)
	}
	if engine.BundleHash() == "" {
		t.Fatal("bundle hash should be computed at load time")
	}

	decision, err := engine.Evaluate(context.Background(), domain.PolicyInput{
		PolicyIDs: []string{"no_retention", "eu_region"},
		Verification: domain.PolicySummary{
			Valid:          true,
			SignatureValid: true,
		},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected allow, denials: %+v", decision.Denials)
	}
	if decision.BundleID != "test-bundle" {
		t.Fatalf("bundle id = %q", decision.BundleID)
	}
	if decision.BundleHash != engine.BundleHash() {
		t.Fatal("decision should carry the bundle hash")
	}
}

func TestEngine_DeniesUnknownPolicy(t *testing.T) {
	engine, err := NewEngineFromBundlePath(context.Background(), writeBundle(t), "test-bundle")
	if err != nil {
		t.Fatalf("load engine: %v", err)
	}

	decision, err := engine.Evaluate(context.Background(), domain.PolicyInput{
		PolicyIDs:    []string{"no_retention", "made_up"},
		Verification: domain.PolicySummary{Valid: true},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.Allowed {
		t.Fatal("unknown policy id should deny")
	}
	if len(decision.Denials) != 1 {
		t.Fatalf("denials = %+v", decision.Denials)
	}
	deny := decision.Denials[0]
	if deny.Code != "E-POLICY-001" || deny.Field != "made_up" {
		t.Fatalf("unexpected denial: %+v", deny)
	}
	if deny.Message != domain.ErrorMessage("E-POLICY-001") {
		t.Fatalf("message should come from the shared table, got %q", deny.Message)
	}
}

func TestEngine_DeniesFailedVerification(t *testing.T) {
	engine, err := NewEngineFromBundlePath(context.Background(), writeBundle(t), "test-bundle")
	if err != nil {
		t.Fatalf("load engine: %v", err)
	}

	decision, err := engine.Evaluate(context.Background(), domain.PolicyInput{
		PolicyIDs:    []string{"no_retention"},
		Verification: domain.PolicySummary{Valid: false},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.Allowed {
		t.Fatal("failed verification should deny")
	}
	if decision.Denials[0].Code != "E-POLICY-003" {
		t.Fatalf("unexpected denial: %+v", decision.Denials[0])
	}
}

func TestComputeBundleHash_StableAcrossLoads(t *testing.T) {
	dir := writeBundle(t)
	first, err := ComputeBundleHashFromPath(dir)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := ComputeBundleHashFromPath(dir)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first != second {
		t.Fatal("bundle hash must be deterministic")
	}

	if err := os.WriteFile(filepath.Join(dir, "extra.rego"), []byte("package tecp.extra\n"), 0o644); err != nil {
		t.Fatalf("write extra: %v", err)
	}
	changed, err := ComputeBundleHashFromPath(dir)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if changed == first {
		t.Fatal("bundle hash must change when content changes")
	}
}
