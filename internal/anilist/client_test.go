package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(url string) *Client {
	c := NewClient(url)
	c.PageDelay = 0
	c.RetryDelay = 0
	return c
}

func graphqlVars(r *http.Request) map[string]any {
	var body struct {
		Variables map[string]any `json:"variables"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	return body.Variables
}

func TestUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := graphqlVars(r)
		if vars["name"] != "TheBastard" {
			t.Errorf("unexpected name variable: %v", vars["name"])
		}
		fmt.Fprint(w, `{"data":{"User":{"id":123}}}`)
	}))
	defer srv.Close()

	id, err := testClient(srv.URL).UserID(context.Background(), "TheBastard")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 123 {
		t.Errorf("expected 123, got %d", id)
	}
}

func TestUserIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"Not Found."}],"data":{"User":null}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).UserID(context.Background(), "nobody")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func activityJSON(id int, mediaType string) string {
	return fmt.Sprintf(`{
		"id": %d, "createdAt": %d, "progress": "%d", "status": "read chapter",
		"media": {"id": 9, "title": {"romaji": "Danjon Risetto", "english": "Dungeon Reset"}, "type": %q}
	}`, id, 1000+id, id, mediaType)
}

func pageJSON(hasNext bool, activities ...string) string {
	return fmt.Sprintf(`{"data":{"Page":{"pageInfo":{"hasNextPage":%t},"activities":[%s]}}}`,
		hasNext, strings.Join(activities, ","))
}

func TestActivitiesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := graphqlVars(r)
		switch int(vars["page"].(float64)) {
		case 1:
			fmt.Fprint(w, pageJSON(true, activityJSON(30, "MANGA"), activityJSON(29, "ANIME"), `{}`, `{"id": 28, "createdAt": 1, "progress": null, "status": "x", "media": null}`))
		case 2:
			fmt.Fprint(w, pageJSON(false, activityJSON(10, "MANGA")))
		default:
			t.Error("fetched past the last page")
		}
	}))
	defer srv.Close()

	acts := testClient(srv.URL).Activities(context.Background(), 1, 0)
	if len(acts) != 2 {
		t.Fatalf("expected 2 manga activities, got %d", len(acts))
	}
	if acts[0].ID != 30 || acts[1].ID != 10 {
		t.Errorf("unexpected IDs: %d, %d", acts[0].ID, acts[1].ID)
	}
	if acts[0].Media.Title.English != "Dungeon Reset" {
		t.Errorf("unexpected title: %q", acts[0].Media.Title.English)
	}
}

func TestActivitiesRateLimitRetriesSamePage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, pageJSON(false, activityJSON(5, "MANGA")))
	}))
	defer srv.Close()

	acts := testClient(srv.URL).Activities(context.Background(), 1, 0)
	if calls != 2 {
		t.Errorf("expected 2 calls (retry), got %d", calls)
	}
	if len(acts) != 1 {
		t.Fatalf("expected 1 activity after retry, got %d", len(acts))
	}
}

func TestActivitiesKeepsPartialResultsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := graphqlVars(r)
		if int(vars["page"].(float64)) == 1 {
			fmt.Fprint(w, pageJSON(true, activityJSON(5, "MANGA")))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	acts := testClient(srv.URL).Activities(context.Background(), 1, 0)
	if len(acts) != 1 {
		t.Fatalf("expected partial results to survive, got %d activities", len(acts))
	}
}

func TestActivitiesIncrementalStop(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprint(w, pageJSON(true, activityJSON(30, "MANGA"), activityJSON(20, "MANGA")))
	}))
	defer srv.Close()

	acts := testClient(srv.URL).Activities(context.Background(), 1, 20)
	if pages != 1 {
		t.Errorf("expected paging to stop after 1 page, made %d requests", pages)
	}
	if len(acts) != 1 || acts[0].ID != 30 {
		t.Fatalf("expected only the activity newer than 20, got %+v", acts)
	}
}
