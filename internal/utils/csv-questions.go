package utils

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"

	"github.com/quizclash/quizclash-backend/internal"
)

// ReadQuestionsCSV loads the question bank used when no database is
// configured (dev mode). Expected columns:
// id, category_id, topic, difficulty, type, content, best_answer, explanation
func ReadQuestionsCSV(filePath string) []internal.Question {
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Unable to read input file "+filePath, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)

	records, err := csvReader.ReadAll()
	if err != nil {
		log.Fatal("Unable to parse file as CSV for "+filePath, err)
	}

	var questions []internal.Question

	for _, record := range records {
		if len(record) < 8 {
			log.Println("Skipping invalid record: ", record)
			continue
		}
		id, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			log.Println("Invalid question id:", record[0], "in record", record)
			continue
		}
		categoryId, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			log.Println("Invalid category id:", record[1], "in record", record)
			continue
		}

		questions = append(questions, internal.Question{
			Id:          id,
			CategoryId:  categoryId,
			Topic:       record[2],
			Difficulty:  record[3],
			Type:        internal.QuestionType(record[4]),
			Content:     record[5],
			BestAnswer:  record[6],
			Explanation: record[7],
		})
	}

	return questions
}
