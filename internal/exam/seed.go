package exam

// Classes and Packages are the choices offered by the student login form.
// They are hints only; stored data is never rejected for using other labels.
var (
	Classes  = []string{"IX-1", "IX-2", "IX-3", "IX-4", "IX-5", "IX-6", "IX-7", "IX-8", "IX-9"}
	Packages = []string{"Paket 1", "Paket 2", "Paket 3", "Paket 4", "Paket 5"}
)

// SeedSettings returns the branding used when no settings are stored yet.
func SeedSettings() SchoolSettings {
	return SchoolSettings{
		SchoolName:   "SMP Negeri 216 Jakarta",
		Motto:        "Unggul dalam Prestasi, Santun dalam Budi Pekerti",
		AcademicYear: "2024/2025",
		LogoURL:      "https://raw.githubusercontent.com/ai-code-images/assets/main/smpn216.jpg",
	}
}

// SeedQuestions returns a fresh copy of the built-in question bank.
func SeedQuestions() []Question {
	return []Question{
		{
			ID:            "1",
			Number:        1,
			Text:          "Jika 3x + 5 = 20, berapakah nilai x?",
			Options:       Options{A: "3", B: "5", C: "7", D: "15"},
			CorrectAnswer: OptionB,
			Subject:       SubjectMath,
			Package:       "Paket 1",
		},
		{
			ID:            "2",
			Number:        2,
			Text:          "Hasil dari 12 x 12 + 10 adalah...",
			Options:       Options{A: "144", B: "154", C: "164", D: "120"},
			CorrectAnswer: OptionB,
			Subject:       SubjectMath,
			Package:       "Paket 1",
		},
		{
			ID:            "3",
			Number:        1,
			Text:          "Ide pokok dari sebuah paragraf biasanya terletak pada...",
			Options:       Options{A: "Kalimat utama", B: "Kalimat penjelas", C: "Akhir paragraf saja", D: "Judul"},
			CorrectAnswer: OptionA,
			Subject:       SubjectIndonesian,
			Package:       "Paket 1",
		},
		{
			ID:            "4",
			Number:        2,
			Text:          `Sinonim dari kata "Edukasi" adalah...`,
			Options:       Options{A: "Pendidikan", B: "Hiburan", C: "Pekerjaan", D: "Perjalanan"},
			CorrectAnswer: OptionA,
			Subject:       SubjectIndonesian,
			Package:       "Paket 1",
		},
	}
}
