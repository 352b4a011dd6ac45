package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cvgen-backend/cv/model"
	"cvgen-backend/cv/render"
)

func main() {
	outDir := flag.String("out", "./out", "output directory for the generated DOCX")
	modelPath := flag.String("model", "", "path to a CV JSON file (optional, defaults to a built-in sample)")
	flag.Parse()

	cv, err := loadModel(*modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load model failed: %v\n", err)
		os.Exit(1)
	}

	path, err := render.NewRenderer().Render(cv, *outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}

	if err := writeModel(filepath.Join(*outDir, "sample_cv_model.json"), cv); err != nil {
		fmt.Fprintf(os.Stderr, "write model failed: %v\n", err)
		os.Exit(1)
	}

	if err := validateRenderedDocx(path, cv.FullName()); err != nil {
		fmt.Fprintf(os.Stderr, "render validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s\n", path)
}

func loadModel(path string) (model.CV, error) {
	if strings.TrimSpace(path) == "" {
		return sampleCV(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.CV{}, err
	}
	var cv model.CV
	if err := json.Unmarshal(raw, &cv); err != nil {
		return model.CV{}, err
	}
	cv.Normalize()
	return cv, nil
}

func writeModel(path string, cv model.CV) error {
	payload, err := json.MarshalIndent(cv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func sampleCV() model.CV {
	return model.CV{
		Identity: model.Identity{
			LastName:  model.String("Martin"),
			FirstName: model.String("Alice"),
			Age:       model.String("29"),
			City:      model.String("Nantes"),
			Email:     model.String("alice.martin@example.com"),
			Phone:     model.String("06 12 34 56 78"),
		},
		Profile: model.String("Développeuse backend orientée qualité, à l'aise sur les API et la donnée."),
		Experiences: []model.Experience{
			{
				Role:         model.String("Développeuse Go"),
				Organization: model.String("Atelier Numérique"),
				StartDate:    model.String("2021"),
				EndDate:      model.String("aujourd'hui"),
				Description:  model.String("Conception d'API REST et migration vers PostgreSQL."),
			},
			{
				Role:         model.String("Stagiaire développement"),
				Organization: model.String("Logistique Ouest"),
				StartDate:    model.String("2020"),
				EndDate:      model.String("2020"),
			},
		},
		Education: []model.Education{
			{
				Degree:      model.String("Master informatique"),
				Institution: model.String("Université de Nantes"),
				Year:        model.String("2020"),
			},
		},
		Skills: model.Skills{
			Technical: model.StringList{"Go", "PostgreSQL", "Docker"},
			Soft:      model.StringList{"Rigueur", "Travail en équipe"},
		},
		Languages: model.StringList{"Français", "Anglais"},
		Interests: model.StringList{"Escalade", "Photographie"},
	}
}

func validateRenderedDocx(path, wantName string) error {
	docxBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	reader, err := zip.NewReader(bytes.NewReader(docxBytes), int64(len(docxBytes)))
	if err != nil {
		return err
	}

	for _, file := range reader.File {
		if strings.ReplaceAll(file.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if wantName != "" && !strings.Contains(string(content), wantName) {
			return fmt.Errorf("document.xml does not contain %q", wantName)
		}
		return nil
	}

	return fmt.Errorf("document.xml not found in docx")
}
