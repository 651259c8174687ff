package llm

import (
	"context"
	"testing"
)

func TestWithOperation_RoundTrip(t *testing.T) {
	ctx := WithOperation(context.Background(), OperationPlan)

	if got := OperationFrom(ctx); got != OperationPlan {
		t.Errorf("expected %q, got %q", OperationPlan, got)
	}
}

func TestOperationFrom_DefaultsToUnknown(t *testing.T) {
	if got := OperationFrom(context.Background()); got != OperationUnknown {
		t.Errorf("expected %q, got %q", OperationUnknown, got)
	}
}

func TestWithContext_MergesValues(t *testing.T) {
	ctx := WithContext(context.Background(), map[string]any{"owner_id": "u1"})
	ctx = WithOperation(ctx, OperationChat)

	values := GetContext(ctx)
	if values["owner_id"] != "u1" {
		t.Errorf("expected owner_id to survive merge, got %v", values["owner_id"])
	}
	if values["operation"] != OperationChat {
		t.Errorf("expected operation %q, got %v", OperationChat, values["operation"])
	}
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	ctx := WithOperation(context.Background(), OperationSummarize)

	values := GetContext(ctx)
	values["operation"] = "mutated"

	if got := OperationFrom(ctx); got != OperationSummarize {
		t.Errorf("mutating the returned map changed the context: %q", got)
	}
}

func TestGetContext_ReturnsNilForEmptyContext(t *testing.T) {
	if GetContext(context.Background()) != nil {
		t.Error("expected nil for empty context")
	}
}
