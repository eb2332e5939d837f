package llm

import "fmt"

const summarySystemPrompt = "You are a medical assistant helping to summarize patient-doctor conversations for healthcare records."

const summaryInstructions = `Summarize the important information for healthcare providers from this patient-doctor conversation transcript in 1-4 sentences. Focus on:
- Patient's main symptoms or concerns
- Doctor's recommendations or diagnosis
- Any follow-up actions needed
- Key medical information discussed

Transcript:`

const cleanupSystemPrompt = "You are a medical transcription assistant. Clean up and correct transcribed audio while maintaining accuracy and medical context."

func summaryPrompt(transcript string) string {
	return summaryInstructions + "\n\n" + transcript
}

func cleanupPrompt(text, medicalContext string) string {
	return fmt.Sprintf(`Please process and clean up this transcribed audio text from a patient-doctor conversation. 

MEDICAL CONTEXT:
%s

TRANSCRIBED TEXT:
%s

Please:
1. Correct any transcription errors
2. Fix grammar and punctuation
3. Ensure medical terminology is accurate
4. Maintain the conversational tone
5. Keep the original meaning and intent

Return only the cleaned text without any additional commentary.`, medicalContext, text)
}
