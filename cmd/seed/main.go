package main

import (
	"context"
	"hash/fnv"
	"log"
	"math"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/repository/implementation"
	"sermon-agent-be/pkg/database"
)

const embeddingDim = 1024

type seedSermon struct {
	Title     string
	Preacher  string
	Church    string
	Date      string
	Scripture string
	Summary   string
}

var sermons = []seedSermon{
	{
		Title:     "심령이 가난한 자의 복",
		Preacher:  "김은혜",
		Church:    "은혜교회",
		Date:      "2024-03-10",
		Scripture: "마태복음 5:3",
		Summary:   "산상수훈의 첫 번째 복을 중심으로, 자기 의를 내려놓은 사람에게 임하는 하나님 나라를 설명한다.",
	},
	{
		Title:     "사랑은 오래 참고",
		Preacher:  "박요한",
		Church:    "소망교회",
		Date:      "2024-05-19",
		Scripture: "고린도전서 13:4-7",
		Summary:   "사랑장의 본문을 따라 공동체 안에서 오래 참는 사랑이 어떻게 실천되는지를 다룬다.",
	},
	{
		Title:     "여호와는 나의 목자",
		Preacher:  "김은혜",
		Church:    "은혜교회",
		Date:      "2024-07-07",
		Scripture: "시편 23",
		Summary:   "시편 23편을 통해 인도하시는 하나님과 사망의 음침한 골짜기에서의 동행을 묵상한다.",
	},
	{
		Title:     "탕자를 기다리는 아버지",
		Preacher:  "이사무엘",
		Church:    "참빛교회",
		Date:      "2024-09-01",
		Scripture: "누가복음 15:11-32",
		Summary:   "돌아온 탕자 비유에서 기다리시는 아버지의 마음과 회복의 잔치를 조명한다.",
	},
	{
		Title:     "믿음의 조상 아브라함",
		Preacher:  "박요한",
		Church:    "소망교회",
		Date:      "2024-11-17",
		Scripture: "창세기 12:1-4",
		Summary:   "본토 친척 아비 집을 떠나라는 부르심 앞에 선 아브라함의 순종을 따라간다.",
	},
}

// fakeEmbedding produces a deterministic unit vector from the text, so dev
// seeding needs no embedding service. Similar texts do not land near each
// other, which is fine for exercising the query path.
func fakeEmbedding(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, embeddingDim)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11))/float64(1<<52) - 1.0
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDB(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	sermonRepo := implementation.NewSermonRepository(db)
	embeddingRepo := implementation.NewSermonEmbeddingRepository(db)

	color.Cyan("Seeding sermon corpus (%d sermons)", len(sermons))

	for _, s := range sermons {
		existing, err := sermonRepo.FindAll(ctx)
		if err != nil {
			color.Red("Failed to query existing sermons: %v", err)
			os.Exit(1)
		}
		alreadySeeded := false
		for _, e := range existing {
			if e.Title == s.Title {
				alreadySeeded = true
				break
			}
		}
		if alreadySeeded {
			color.Yellow("Sermon '%s' already exists, skipping", s.Title)
			continue
		}

		sermonDate, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			color.Red("Bad date for '%s': %v", s.Title, err)
			os.Exit(1)
		}

		sermon := entity.Sermon{
			Id:         uuid.New(),
			Title:      s.Title,
			Preacher:   s.Preacher,
			ChurchName: s.Church,
			SermonDate: sermonDate,
			Scripture:  s.Scripture,
			Summary:    s.Summary,
			CreatedAt:  time.Now(),
		}
		if err := sermonRepo.Create(ctx, &sermon); err != nil {
			color.Red("Failed to create sermon '%s': %v", s.Title, err)
			os.Exit(1)
		}

		embeddings := []*entity.SermonEmbedding{
			{
				Id:             uuid.New(),
				SermonId:       sermon.Id,
				Field:          "title",
				EmbeddingValue: fakeEmbedding(s.Title),
				CreatedAt:      time.Now(),
			},
			{
				Id:             uuid.New(),
				SermonId:       sermon.Id,
				Field:          "summary",
				EmbeddingValue: fakeEmbedding(s.Summary),
				CreatedAt:      time.Now(),
			},
		}
		if err := embeddingRepo.CreateBulk(ctx, embeddings); err != nil {
			color.Red("Failed to create embeddings for '%s': %v", s.Title, err)
			os.Exit(1)
		}

		color.Green("Seeded: %s (%s, %s)", sermon.Title, sermon.Preacher, s.Scripture)
	}

	color.Cyan("Seeding complete")
}
