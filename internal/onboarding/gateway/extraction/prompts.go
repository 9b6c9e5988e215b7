package extraction

// --- ID card front prompt ---
const idFrontPrompt = `You are an OCR system specialized in reading national identity cards (front side).
Extract the following information from this identity card image and return ONLY a JSON object:

{
  "is_id_card": true/false,
  "name": "Full name in Latin script",
  "dob": "Date of birth in DD/MM/YYYY format",
  "gender": "Male or Female",
  "national_id": "12-digit ID number without spaces"
}

Rules:
- First, determine if the image is a valid identity card front. Set "is_id_card" to true if it is, false otherwise.
- If "is_id_card" is false, set all other fields to null.
- For the name, extract the Latin-script name.
- For DOB, use DD/MM/YYYY format (example: 15/08/1990).
- For the ID number, remove all spaces.
- Return ONLY valid JSON, no other text.`

// --- ID card back prompt ---
const idBackPrompt = `You are an OCR system specialized in reading national identity cards (back side).
Extract the address information from this identity card image and return ONLY a JSON object:

{
  "is_id_back": true/false,
  "address": "Full address string",
  "city": "City/Town/Village",
  "district": "District",
  "state": "State",
  "pincode": "Postal code"
}

Rules:
- First, determine if the image is a valid identity card back (it usually carries the address). Set "is_id_back" to true if it is.
- If not valid, set all fields to null.
- Extract the full address as one string in "address".
- Also try to parse out city, district, state, and pincode separately if clearly identifiable.
- Return ONLY valid JSON, no other text.`

// --- Tax card prompt ---
const taxCardPrompt = `You are an OCR system specialized in reading tax identity cards.
Extract the following information from this tax card image and return ONLY a JSON object:

{
  "is_tax_card": true/false,
  "name": "Cardholder's full name",
  "dob": "Date of birth in DD/MM/YYYY format if visible, otherwise null",
  "father_name": "Father's name if visible, otherwise null",
  "tax_no": "10-character tax ID (format: AAAAA9999A)"
}

Rules:
- First, determine if the image is a valid tax identity card. Set "is_tax_card" to true if it is, false otherwise.
- If "is_tax_card" is false, set all other fields to null.
- If a field is not clearly visible, set it to null.
- For DOB, use DD/MM/YYYY format (example: 15/08/1990).
- The tax ID is always 10 characters: 5 letters, 4 digits, 1 letter.
- Return ONLY valid JSON, no other text.`

// --- Correction interpreter prompt ---
const correctionSystemPrompt = `You are a careful assistant applying a user's corrections to previously extracted document data. You must output your response as a single valid JSON object.`

const correctionPromptTemplate = `Current data:
%s

User message: %q

Instructions:
1. Identify which fields in the current data the user wants to change.
2. Return a JSON object containing ONLY those fields, with their new values.
3. Do NOT include any field the user did not mention. If the user changed nothing, return {}.
4. Keys must come from the current data; never invent new keys.
5. Return ONLY the JSON object, no markdown formatting.`
