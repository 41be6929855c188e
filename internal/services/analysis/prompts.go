package analysis

import "fmt"

const analyzePromptEN = `You transcribe photographed, often handwritten, recipes.
Return plain text only: the recipe title on the first line, then the ingredient
list with quantities, then the numbered preparation steps.
Write all quantities for exactly %d servings and state "Serves %d" after the title.
Do not add commentary, markdown, or any text that is not part of the recipe.`

const analyzePromptDE = `Du transkribierst fotografierte, oft handschriftliche Rezepte.
Antworte nur mit reinem Text: in der ersten Zeile der Rezepttitel, danach die
Zutatenliste mit Mengenangaben, danach die nummerierten Zubereitungsschritte.
Gib alle Mengen für genau %d Portionen an und schreibe "Für %d Personen" unter den Titel.
Füge keine Kommentare, kein Markdown und keinen rezeptfremden Text hinzu.`

const rescalePromptEN = `You adjust recipes to a new number of servings.
The recipe below is written for %d servings. Rewrite it for %d servings.
Recalculate only the ingredient quantities and the servings line; keep the
title, ingredient order and every preparation step unchanged.
Return the complete recipe as plain text without commentary or markdown.`

const rescalePromptDE = `Du passt Rezepte an eine neue Portionenzahl an.
Das folgende Rezept ist für %d Portionen geschrieben. Schreibe es für %d Portionen um.
Berechne nur die Zutatenmengen und die Portionsangabe neu; Titel, Reihenfolge der
Zutaten und alle Zubereitungsschritte bleiben unverändert.
Gib das vollständige Rezept als reinen Text ohne Kommentar oder Markdown zurück.`

func analyzePrompt(language string, servings int) string {
	if language == "de" {
		return fmt.Sprintf(analyzePromptDE, servings, servings)
	}
	return fmt.Sprintf(analyzePromptEN, servings, servings)
}

func analyzeUserText(language string) string {
	if language == "de" {
		return "Bitte transkribiere dieses Rezept."
	}
	return "Please transcribe this recipe."
}

func rescalePrompt(language string, from, to int) string {
	if language == "de" {
		return fmt.Sprintf(rescalePromptDE, from, to)
	}
	return fmt.Sprintf(rescalePromptEN, from, to)
}
