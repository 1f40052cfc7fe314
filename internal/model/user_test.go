package model

import (
	"encoding/json"
	"testing"
)

func TestUser_JSON(t *testing.T) {
	region := "NA"

	testCases := []struct {
		name string
		user User
		want string
	}{
		{
			name: "with region",
			user: User{ID: "01J", Username: "alice", Verified: true, Region: &region},
			want: `{"id":"01J","username":"alice","verified":true,"region":"NA"}`,
		},
		{
			name: "without region",
			user: User{ID: "01J", Username: "bob"},
			want: `{"id":"01J","username":"bob","verified":false}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.user)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Marshal() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestUser_PartitionKey(t *testing.T) {
	u := &User{ID: "01HZX"}
	if got := u.PartitionKey(); got != "01HZX" {
		t.Errorf("PartitionKey() = %q, want %q", got, "01HZX")
	}
}
