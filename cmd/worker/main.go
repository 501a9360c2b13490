package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"schoolattend/internal/config"
	"schoolattend/internal/enroll"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/metrics"
	"schoolattend/internal/queue"
	"schoolattend/internal/roster"
	"schoolattend/internal/store"
)

// Worker consumes enrollment jobs, runs the face pipeline and stores the
// resulting embedding. Failures are logged and counted; the student row is
// already committed by the API and stays untouched.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "schoolattend:jobs")
	}

	rosterRepo := roster.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceTimeout, cfg.FaceSkip)
	enroller := enroll.NewService(face, rosterRepo, cfg.EmbeddingDim, cfg.FaceTimeout)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: face service not available: %v", err)
			log.Println("worker will retry when jobs arrive")
		} else {
			log.Println("face service connected")
		}
	}

	messages, err := jobs.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for jobs...")
	for job := range messages {
		if job.Type != queue.JobEnroll {
			continue
		}

		log.Printf("enrolling student %d (job %s)", job.StudentID, job.ID)
		emb, err := enroller.Enroll(ctx, job.StudentID, job.ImageURL)
		switch {
		case err == nil:
			metrics.EnrollTotal.WithLabelValues("ok").Inc()
			log.Printf("student %d enrolled, embedding %d", job.StudentID, emb.ID)
		case errors.Is(err, faceclient.ErrNoFace):
			metrics.EnrollTotal.WithLabelValues("no_face").Inc()
			log.Printf("enrollment failed for student %d: %v", job.StudentID, err)
		default:
			metrics.EnrollTotal.WithLabelValues("error").Inc()
			log.Printf("enrollment failed for student %d: %v", job.StudentID, err)
		}
	}

	log.Println("worker stopped")
}
