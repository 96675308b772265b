package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// simulate races concurrent booking requests for one slot against a running
// api-server and reports how many won. With the slot CAS in place exactly
// one should succeed no matter how many workers race.

type bookRequest struct {
	PatientName  string `json:"patient_name"`
	DateOfBirth  string `json:"date_of_birth"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`
	Doctor       string `json:"doctor"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	Reason       string `json:"reason"`
}

type slotResponse struct {
	Doctor    string `json:"doctor"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	baseURL := flag.String("api", "http://127.0.0.1:8080", "api-server base URL")
	workers := flag.Int("workers", 25, "concurrent booking attempts per slot")
	doctor := flag.String("doctor", "", "doctor to book (default: first with availability)")
	date := flag.String("date", "", "date to book, YYYY-MM-DD (default: first available)")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	slot, err := pickSlot(client, *baseURL, *doctor, *date)
	if err != nil {
		log.Fatalf("pick slot: %v", err)
	}
	log.Printf("racing %d workers for %s %s %s", *workers, slot.Doctor, slot.Date, slot.StartTime)

	gofakeit.Seed(time.Now().UnixNano())

	var success, conflict, other int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := bookRequest{
				PatientName:  gofakeit.Name(),
				DateOfBirth:  "1990-01-01",
				PatientEmail: gofakeit.Email(),
				PatientPhone: gofakeit.Numerify("9#########"),
				Doctor:       slot.Doctor,
				Date:         slot.Date,
				StartTime:    slot.StartTime,
				Reason:       "Regular Checkup",
			}

			<-start
			status, err := book(client, *baseURL, req)
			switch {
			case err != nil:
				atomic.AddInt64(&other, 1)
				log.Printf("booking error: %v", err)
			case status == http.StatusCreated:
				atomic.AddInt64(&success, 1)
			case status == http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			default:
				atomic.AddInt64(&other, 1)
				log.Printf("unexpected status: %d", status)
			}
		}()
	}

	close(start)
	wg.Wait()

	log.Printf("done: success=%d conflict=%d other=%d", success, conflict, other)
	if success != 1 {
		log.Fatalf("FAIL: expected exactly one winning booking, got %d", success)
	}
	log.Println("OK: slot reservation held under contention")
}

func pickSlot(client *http.Client, baseURL, doctor, date string) (slotResponse, error) {
	if doctor == "" {
		var doctors []string
		if err := getJSON(client, baseURL+"/availability/doctors", &doctors); err != nil {
			return slotResponse{}, err
		}
		if len(doctors) == 0 {
			return slotResponse{}, fmt.Errorf("no doctors found, run the seed first")
		}
		doctor = doctors[0]
	}

	if date == "" {
		var dates []string
		if err := getJSON(client, baseURL+"/availability/doctors/"+url.PathEscape(doctor)+"/dates", &dates); err != nil {
			return slotResponse{}, err
		}
		if len(dates) == 0 {
			return slotResponse{}, fmt.Errorf("no open dates for %s", doctor)
		}
		date = dates[0]
	}

	var slots []slotResponse
	listURL := fmt.Sprintf("%s/availability?doctor=%s&date=%s", baseURL, url.QueryEscape(doctor), date)
	if err := getJSON(client, listURL, &slots); err != nil {
		return slotResponse{}, err
	}
	if len(slots) == 0 {
		return slotResponse{}, fmt.Errorf("no open slots for %s on %s", doctor, date)
	}
	return slots[0], nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func book(client *http.Client, baseURL string, req bookRequest) (int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
