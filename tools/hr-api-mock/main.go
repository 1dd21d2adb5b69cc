package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// A simple struct to capture the incoming event data
type RecordApprovedEvent struct {
	RecordID    int64      `json:"recordId"`
	UserID      string     `json:"userId"`
	Date        string     `json:"date"`
	SignInTime  time.Time  `json:"signInTime"`
	SignOutTime *time.Time `json:"signOutTime,omitempty"`
	TotalHours  float64    `json:"totalHours"`
}

func attendanceHandler(w http.ResponseWriter, r *http.Request) {
	var event RecordApprovedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	log.Printf("Received approved attendance for UserID: %s, Date: %s, Hours: %.2f", event.UserID, event.Date, event.TotalHours)
	w.WriteHeader(http.StatusOK)
}

func main() {
	http.HandleFunc("/", attendanceHandler)
	log.Println("HR API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
