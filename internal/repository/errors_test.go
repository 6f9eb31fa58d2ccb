package repository

import (
	"errors"
	"testing"
)

func TestMapDuplicate(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"unrelated error passes through", errors.New("connection reset"), errors.New("connection reset")},
		{
			"email index",
			errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'users.email'"),
			ErrEmailExists,
		},
		{
			"username index",
			errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.username'"),
			ErrUsernameExists,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapDuplicate(tc.in)
			switch {
			case tc.want == nil:
				if got != nil {
					t.Errorf("mapDuplicate = %v, want nil", got)
				}
			case tc.want == ErrEmailExists || tc.want == ErrUsernameExists:
				if !errors.Is(got, tc.want) {
					t.Errorf("mapDuplicate = %v, want %v", got, tc.want)
				}
			default:
				if got == nil || got.Error() != tc.want.Error() {
					t.Errorf("mapDuplicate = %v, want %v", got, tc.want)
				}
			}
		})
	}
}
