package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/AaronLay10/cyclist/internal/config"
	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/question"
	"github.com/AaronLay10/cyclist/internal/scene"
	"github.com/AaronLay10/cyclist/internal/storage/postgres"
)

func main() {
	questionsPath := flag.String("questions", "questions.json", "questions file")
	outputPath := flag.String("output", "answers.json", "answers file")
	sceneDir := flag.String("scenes", "output/scenes", "scene record directory")
	split := flag.String("split", "train", "dataset split of the scenes")
	degenerate := flag.Bool("degenerate", true, "flag questions whose relate steps carry no information")
	dataset := flag.String("postgres", "", "store answers in this postgres dataset")
	envFile := flag.String("env", ".env", "environment file")
	logLevel := flag.String("log-level", "warning", "minimum level of events written to stdout")
	flag.Parse()

	events.SetOutput(os.Stdout, *logLevel)
	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("failed to load %s: %v", *envFile, err)
	}

	file, err := question.LoadFile(*questionsPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *questionsPath, err)
	}
	records, err := scene.NewRecordStore(*sceneDir)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var pg *postgres.Client
	if *dataset != "" {
		pg, err = postgres.New(*dataset)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pg.Close()
		events.SetPostgresClient(pg)
	}

	engine := question.NewEngine()
	views := make(map[int]*question.View)
	results := make([]question.Result, 0, len(file.Questions))
	var invalid, degenerateCount int

	for _, q := range file.Questions {
		v, ok := views[q.SceneIndex]
		if !ok {
			s, err := records.LoadIndex(*split, q.SceneIndex)
			if err != nil {
				log.Fatalf("scene %d: %v", q.SceneIndex, err)
			}
			v = question.NewView(s)
			views[q.SceneIndex] = v
		}

		res := engine.Evaluate(q, v, *degenerate)
		if res.Error != "" {
			log.Fatalf("question %d: %s", q.QuestionIndex, res.Error)
		}
		if res.Invalid {
			invalid++
		}
		if res.Degenerate {
			degenerateCount++
		}
		results = append(results, res)

		if pg != nil {
			program, _ := json.Marshal(q.Program)
			err := pg.SaveAnswer(postgres.AnswerRow{
				Split:         *split,
				SceneIndex:    q.SceneIndex,
				QuestionIndex: q.QuestionIndex,
				Program:       program,
				Answer:        res.Answer.String(),
				Degenerate:    res.Degenerate,
			})
			if err != nil {
				log.Printf("failed to store answer %d: %v", q.QuestionIndex, err)
			}
		}
	}

	out, err := json.MarshalIndent(struct {
		Questions []question.Result `json:"questions"`
	}{results}, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode answers: %v", err)
	}
	if err := os.WriteFile(*outputPath, out, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", *outputPath, err)
	}
	log.Printf("answered %d questions (%d invalid, %d degenerate) into %s",
		len(results), invalid, degenerateCount, *outputPath)
}
