package register

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"

	"antns.org/antns-go/internal/mocks"
	"antns.org/antns-go/pkg/cas"
)

// Append must create the register when the network reports it absent,
// reusing the entry as the initial value.
func TestAppendFallsBackToCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockClient(ctrl)

	entry := cas.Address{42}
	notFound := fmt.Errorf("register: %w", cas.ErrNotFound)
	client.EXPECT().RegisterAppend(gomock.Any(), gomock.Any(), "example.ant", entry, "pay").
		Return(notFound)
	client.EXPECT().RegisterCreate(gomock.Any(), gomock.Any(), "example.ant", entry, "pay").
		Return(AddressOf("example.ant"), nil)

	a := Adapter{Client: client}
	if err := a.Append(context.Background(), "example.ant", entry, "pay"); err != nil {
		t.Errorf("append failed: %v", err)
	}
}

// Other append errors must not trigger a create.
func TestAppendPropagatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().RegisterAppend(gomock.Any(), gomock.Any(), "example.ant", gomock.Any(), "").
		Return(cas.ErrUnavailable)

	a := Adapter{Client: client}
	if err := a.Append(context.Background(), "example.ant", cas.Address{1}, ""); err == nil {
		t.Errorf("append error swallowed")
	}
}

// History must query the register at the address derived from the
// name.
func TestHistoryUsesDerivedAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockClient(ctrl)
	stream := mocks.NewMockHistoryStream(ctrl)

	client.EXPECT().RegisterHistory(gomock.Any(), AddressOf("example.ant")).
		Return(stream, nil)

	a := Adapter{Client: client}
	got, err := a.History(context.Background(), "example.ant")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if got != stream {
		t.Errorf("unexpected stream returned")
	}
}
